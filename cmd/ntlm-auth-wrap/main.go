// Command ntlm-auth-wrap fronts ntlm_auth: it logs the (redacted) call and
// its latency to syslog and exits with the helper's status.
package main

import (
	"os"

	"github.com/psantana5/ntlm-auth-wrap/cmd/ntlm-auth-wrap/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
