package config

import (
	"fmt"
	"os"
)

func Template() string {
	return gatewayTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(gatewayTemplate), 0o600)
}

const gatewayTemplate = `listen = ":8080"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"
file = ""

[http]
connect_timeout = "60s"
send_timeout = "60s"
read_timeout = "60s"
buffer_size = 4096
next_upstream = ["error", "timeout"]
default_ratio = 30.0
default_type = "text/plain"

[upstreams.local]
servers = ["127.0.0.1:9400"]

[[locations]]
path = "/summary"
pass = "local"

[[locations]]
path = "/brief"
pass = "local"
default_ratio = 10.0
read_timeout = "5s"
next_upstream = ["error", "timeout", "invalid_response"]
`
