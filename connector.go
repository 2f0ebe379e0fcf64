package olake

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/datazip-inc/olake-kafka/drivers/abstract"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/protocol"
)

func RegisterDriver(driver abstract.DriverInterface) {
	// interrupting a read saves the state reached so far
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Execute the root command
	err := protocol.CreateRootCommand(driver).ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
