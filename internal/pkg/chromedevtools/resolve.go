package chromedevtools

import (
	"context"
	"net"
	"os"
	"strings"
)

const dockerHostAlias = "host.docker.internal"

var inDockerFunc = inDocker

var lookupIPAddrs = net.DefaultResolver.LookupIPAddr

// VersionURLResolved is VersionURL with one extra step inside containers:
// Chrome rejects DevTools requests whose Host header is not an IP or
// localhost, so hostnames are resolved to an IPv4 address first. It returns
// the URL and the host actually used.
func VersionURLResolved(ctx context.Context, host, port string) (string, string) {
	host, port = hostPortOrDefault(host, port)
	if strings.TrimSpace(host) == DefaultHost && inDockerFunc() {
		host = dockerHostAlias
	}
	if !inDockerFunc() || net.ParseIP(host) != nil || host == "localhost" {
		return VersionURL(host, port), host
	}

	addrs, err := lookupIPAddrs(ctx, host)
	if err != nil {
		return VersionURL(host, port), host
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			resolved := v4.String()
			return VersionURL(resolved, port), resolved
		}
	}
	return VersionURL(host, port), host
}

func inDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	b, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	s := string(b)
	return strings.Contains(s, "docker") || strings.Contains(s, "containerd")
}
