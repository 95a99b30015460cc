// useragent.go builds the User-Agent sent with every request.

package crashlog

import (
	"fmt"
	"runtime"
)

// ClientVersion is the version of this client library.
const ClientVersion = "1.0.0"

// UserAgent identifies the client engine, OS and OS version to the remote service.
func UserAgent() string {
	platform := runtime.GOOS + "/" + runtime.GOARCH
	if v := osVersion(); v != "" {
		platform += " " + v
	}
	return fmt.Sprintf("%s/%s (%s; %s)", LoggerType, ClientVersion, runtime.Version(), platform)
}
