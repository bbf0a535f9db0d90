package netx

import "net"

// Loopback is the fallback address when no routable interface is found.
// Pairing still works, but only from the same host.
const Loopback = "127.0.0.1"

// LocalIPv4 returns the first non-loopback IPv4 address of an interface that
// is up. Falls back to Loopback when the host has no usable interface.
func LocalIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return Loopback
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}

	return Loopback
}
