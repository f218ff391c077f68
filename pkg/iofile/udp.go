package iofile

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// maxDatagramSize is large enough to hold one full UDP datagram (the
// caller must provide a buffer large enough to hold one full datagram,
// ~65 KiB). Grounded on udp_file_posix.cc's recv buffer.
const maxDatagramSize = 65536

// udpOptions are the recognized query-string options:
// udp://host:port[?reuse=0|1&interface=ip&source=ip&timeout=us]
type udpOptions struct {
	reuse     bool
	iface     string // alias: source
	timeoutUs int64
}

func parseUDPOptions(q url.Values) udpOptions {
	opts := udpOptions{}
	if v := q.Get("reuse"); v == "1" {
		opts.reuse = true
	}
	if v := q.Get("interface"); v != "" {
		opts.iface = v
	} else if v := q.Get("source"); v != "" {
		opts.iface = v
	}
	if v := q.Get("timeout"); v != "" {
		if us, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.timeoutUs = us
		}
	}
	return opts
}

// udpFile is a read-only UDP receiver. Grounded on
// packager/media/file/udp_file_posix.cc and udp_options.cc.
type udpFile struct {
	conn *net.UDPConn
	opts udpOptions
}

func openUDP(name string, mode Mode) (File, error) {
	if mode != ReadMode {
		return nil, fmt.Errorf("iofile: udp:// only supports read mode")
	}

	raw := "udp://" + name
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("iofile: invalid udp url %q: %w", raw, err)
	}
	opts := parseUDPOptions(u.Query())

	addr, err := net.ResolveUDPAddr("udp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("iofile: resolve udp addr: %w", err)
	}

	isMulticast := addr.IP != nil && addr.IP.IsMulticast()
	if isMulticast && opts.iface == "" {
		return nil, fmt.Errorf("iofile: multicast destination %s requires the interface (or source) option", addr.IP)
	}

	// TODO: opts.reuse should set SO_REUSEADDR via a net.ListenConfig.Control
	// callback; net.ListenUDP/ListenMulticastUDP don't expose it directly.

	var conn *net.UDPConn
	if isMulticast {
		ifi, err := interfaceByAddr(opts.iface)
		if err != nil {
			return nil, err
		}
		conn, err = net.ListenMulticastUDP("udp", ifi, addr)
		if err != nil {
			return nil, fmt.Errorf("iofile: join multicast group: %w", err)
		}
	} else {
		conn, err = net.ListenUDP("udp", addr)
		if err != nil {
			return nil, fmt.Errorf("iofile: listen udp: %w", err)
		}
	}

	if opts.timeoutUs > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(time.Duration(opts.timeoutUs) * time.Microsecond))
	}

	return &udpFile{conn: conn, opts: opts}, nil
}

// interfaceByAddr finds the local network interface owning ip, matching
// the "interface"/"source" option's meaning (select the multicast
// interface by its local address).
func interfaceByAddr(ip string) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.String() == ip {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("iofile: no local interface with address %s", ip)
}

func (u *udpFile) Read(buf []byte) (int, error) {
	if len(buf) < maxDatagramSize {
		return 0, fmt.Errorf("iofile: udp read buffer must be at least %d bytes", maxDatagramSize)
	}
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, &ErrNotSupported{Op: "udp receive timed out"}
		}
		return 0, err
	}
	return n, nil
}

func (u *udpFile) Write(buf []byte) (int, error) {
	return 0, &ErrNotSupported{Op: "write"}
}

// Size returns the "unknown" sentinel: UDP is an unbounded stream.
func (u *udpFile) Size() int64 { return SizeUnknown }

func (u *udpFile) Seek(pos int64) (int64, error) { return 0, &ErrNotSupported{Op: "seek"} }

func (u *udpFile) Tell() (int64, error) { return 0, &ErrNotSupported{Op: "tell"} }

func (u *udpFile) Flush() error { return nil }

func (u *udpFile) Close() error { return u.conn.Close() }
