package hwid

import (
	"net"
	"os"
	"strings"
)

// Collect gathers raw platform identifier strings for this host. Any of
// them may be empty; Fingerprint enforces the evidence threshold. The
// sources are deliberately passive reads so that collection never needs
// elevated privileges to partially succeed.
func Collect() []string {
	return []string{
		readTrimmed("/etc/machine-id"),
		readTrimmed("/var/lib/dbus/machine-id"),
		readTrimmed("/sys/class/dmi/id/product_uuid"),
		firstHardwareAddr(),
	}
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// firstHardwareAddr returns the MAC of the first non-loopback interface
// with a hardware address, or "" when none is available.
func firstHardwareAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if addr := iface.HardwareAddr.String(); addr != "" {
			return addr
		}
	}
	return ""
}
