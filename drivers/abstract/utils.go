package abstract

import (
	"time"

	"github.com/joomcode/errorx"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/utils"
)

// RetryOnBackoff retries f with doubling sleeps; configuration errors are never retried
func RetryOnBackoff(attempts int, sleep time.Duration, f func() error) (err error) {
	for cur := 0; cur < attempts; cur++ {
		if err = f(); err == nil {
			return nil
		}
		if errorx.IsOfType(err, utils.ConfigError) {
			break
		}
		if attempts > 1 && cur != attempts-1 {
			logger.Infof("retry attempt[%d], retrying after %.2f seconds due to err: %s", cur+1, sleep.Seconds(), err)
			time.Sleep(sleep)
			sleep = sleep * 2
		}
	}

	return err
}
