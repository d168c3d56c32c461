// Command codeecho flattens GitHub repositories into a single document and
// serves the same operations over HTTP.
package main

import (
	"fmt"

	"github.com/temirov/codeecho/internal/cli"
	"github.com/temirov/codeecho/internal/utils"
)

func main() {
	fatalLogger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError))
	}
	defer func() { _ = fatalLogger.Sync() }()

	if executionError := cli.Execute(); executionError != nil {
		fatalLogger.Fatal(utils.ApplicationExecutionFailedMessage + ": " + executionError.Error())
	}
}
