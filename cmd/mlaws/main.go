package main

import (
	"github.com/odahu/odahu-mlflow-aws/internal/cli"
)

func main() {
	cli.Execute()
}
