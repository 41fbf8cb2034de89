package main

import "context"

func main() {
	exitOnError(newRootCmd().ExecuteContext(context.Background()))
}
