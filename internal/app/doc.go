// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle (load the
// graph definitions, build the selected graph, traverse it and print the
// trace), decoupled from any specific entrypoint like a CLI or server.
package app
