package main

import (
	olake "github.com/datazip-inc/olake-kafka"
	driver "github.com/datazip-inc/olake-kafka/drivers/kafka/internal"
)

func main() {
	driver := &driver.Kafka{}
	olake.RegisterDriver(driver)
}
