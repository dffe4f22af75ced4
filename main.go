package main

import (
	"os"

	"github.com/KinzixInfotech/edutemp-sub018/cmd"
	"github.com/KinzixInfotech/edutemp-sub018/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	cmd.Execute()
}
