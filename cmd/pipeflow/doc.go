// Command pipeflow is the operational entry point: it serves the
// metrics and health endpoints and can run the bundled demo pipelines
// from the terminal.
//
//	pipeflow serve                      # start the operational server
//	pipeflow serve --config config.yaml
//	pipeflow run greeter --input '{"name":"Maria","language":"es"}'
//	pipeflow health                     # probe a running server
//	pipeflow version
package main
