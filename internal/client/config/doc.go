// Package config loads runtime configuration for the auth CLI.
//
// Sources, in increasing precedence: built-in defaults, an optional JSON file
// (-c or -config), and the -a / -t command-line flags.
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "call_timeout": "10s"
//	}
package config
