// Package adbtest provides an in-process fake ADB server for tests.
//
// The server listens on 127.0.0.1 on a random port and answers the
// host services, the transport switch and a small set of device
// services from the state held in its Devices. It counts the
// connections it has open so tests can check that clients close
// every channel they open.
package adbtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultFeatures is the feature list of a recent server and device
var DefaultFeatures = []string{
	"shell_v2", "cmd", "stat_v2", "ls_v2", "fixed_push_mkdir", "apex",
	"abb", "fixed_push_symlink_timestamp", "abb_exec", "remount_shell",
	"track_app", "sendrecv_v2", "push_sync",
}

// Command is a command run by exec:, shell:, shell,v2,raw: or abb_exec:
type Command struct {
	Service string    // "exec", "shell", "shell,v2" or "abb_exec"
	Line    string    // the command line, abb_exec arguments are joined with spaces
	Args    []string  // the command line split on spaces or the abb_exec arguments
	Stdin   io.Reader // whatever the client sends
}

// Result is what a CommandHandler returns
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandHandler runs a command on a fake device
type CommandHandler func(cmd *Command) Result

// Device is a fake device
type Device struct {
	Serial      string
	State       string // "device" unless set
	Product     string
	Model       string
	Device      string
	TransportID int
	APILevel    int
	Features    []string
	DevPath     string

	// IgnoreStdin makes shell v2 commands run at once instead of
	// waiting for stdin to be closed
	IgnoreStdin bool

	// Handler runs commands. If nil only "getprop
	// ro.build.version.sdk" is understood.
	Handler CommandHandler

	mu       sync.Mutex
	pids     []int
	files    map[string]File
	reverses []forward
}

// File is a file received by sync
type File struct {
	Data  []byte
	Mode  uint32
	Mtime uint32
}

// File returns the file pushed to path
func (d *Device) File(path string) (File, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.files[path]
	return f, ok
}

// SetFile stores data at path for sync RECV
func (d *Device) SetFile(path string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = make(map[string]File)
	}
	d.files[path] = File{Data: data, Mode: 0100644}
}

// Reverses returns the reverse forwards as "<remote> <local>"
func (d *Device) Reverses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, r := range d.reverses {
		out = append(out, r.local+" "+r.remote)
	}
	return out
}

// Conn is one accepted connection, handed to custom handlers
type Conn struct {
	net.Conn
}

// Okay sends the OKAY status
func (c *Conn) Okay() error {
	_, err := c.Write([]byte("OKAY"))
	return err
}

// Fail sends FAIL followed by msg
func (c *Conn) Fail(msg string) error {
	_, err := c.Write([]byte("FAIL" + frame(msg)))
	return err
}

// Frame sends s as a length prefixed frame
func (c *Conn) Frame(s string) error {
	_, err := c.Write([]byte(frame(s)))
	return err
}

func frame(s string) string {
	return fmt.Sprintf("%04X%s", len(s), s)
}

// readFrame reads a length prefixed request
func (c *Conn) readFrame() (string, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(c, prefix[:]); err != nil {
		return "", err
	}
	n, err := strconv.ParseUint(string(prefix[:]), 16, 16)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// HandlerFunc answers a request in place of the built in handling
type HandlerFunc func(c *Conn, service string)

type forward struct {
	serial string
	local  string
	remote string
}

// Server is the fake ADB server
type Server struct {
	ln   net.Listener
	wg   sync.WaitGroup
	done chan struct{}

	mu           sync.Mutex
	version      int
	hostFeatures []string
	devices      []*Device
	handlers     map[string]HandlerFunc
	forwards     []forward
	nextPort     int
	requests     []string
	open         int
	accepted     int
	killed       bool
	conns        map[net.Conn]struct{}
	changed      chan struct{}
}

// New starts a fake server
func New() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:           ln,
		done:         make(chan struct{}),
		version:      41,
		hostFeatures: DefaultFeatures,
		handlers:     make(map[string]HandlerFunc),
		nextPort:     40000,
		conns:        make(map[net.Conn]struct{}),
		changed:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Host returns the address the server listens on
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the port the server listens on
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Close stops the server and closes every connection
func (s *Server) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	err := s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

// SetVersion sets the version returned by host:version
func (s *Server) SetVersion(v int) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// SetHostFeatures sets the features returned by host:host-features
func (s *Server) SetHostFeatures(features ...string) {
	s.mu.Lock()
	s.hostFeatures = features
	s.mu.Unlock()
}

// Handle makes fn answer service instead of the built in handling
func (s *Server) Handle(service string, fn HandlerFunc) {
	s.mu.Lock()
	s.handlers[service] = fn
	s.mu.Unlock()
}

// AddDevice connects d, notifying trackers
func (s *Server) AddDevice(d *Device) *Device {
	s.mu.Lock()
	if d.State == "" {
		d.State = "device"
	}
	if d.TransportID == 0 {
		d.TransportID = len(s.devices) + 1
	}
	if d.Features == nil {
		d.Features = DefaultFeatures
	}
	if d.DevPath == "" {
		d.DevPath = "dev-path-reply"
	}
	s.devices = append(s.devices, d)
	s.mu.Unlock()
	s.notify()
	return d
}

// RemoveDevice disconnects the device with serial
func (s *Server) RemoveDevice(serial string) {
	s.mu.Lock()
	for i, d := range s.devices {
		if d.Serial == serial {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// SetState changes the state of the device with serial
func (s *Server) SetState(serial, state string) {
	s.mu.Lock()
	for _, d := range s.devices {
		if d.Serial == serial {
			d.State = state
		}
	}
	s.mu.Unlock()
	s.notify()
}

// SetJDWP sets the debuggable processes of d, notifying trackers
func (s *Server) SetJDWP(d *Device, pids ...int) {
	d.mu.Lock()
	d.pids = append([]int(nil), pids...)
	d.mu.Unlock()
	s.notify()
}

// notify wakes every tracker
func (s *Server) notify() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Requests returns every request received so far
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// OpenConnections returns the number of connections not yet closed
func (s *Server) OpenConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Accepted returns the number of connections accepted so far
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Killed returns true once host:kill has been received
func (s *Server) Killed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killed
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.open++
		s.accepted++
		s.conns[nc] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(&Conn{Conn: nc})
			_ = nc.Close()
			s.mu.Lock()
			s.open--
			delete(s.conns, nc)
			s.mu.Unlock()
		}()
	}
}

// handle answers the requests of one connection
func (s *Server) handle(c *Conn) {
	var device *Device
	for {
		service, err := c.readFrame()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, service)
		fn := s.handlers[service]
		s.mu.Unlock()
		if fn != nil {
			fn(c, service)
			return
		}
		if device != nil {
			s.deviceService(c, device, service)
			return
		}
		if strings.HasPrefix(service, "host:transport") {
			device, err = s.transport(service)
			if err != nil {
				_ = c.Fail(err.Error())
				return
			}
			_ = c.Okay()
			continue
		}
		s.hostService(c, service)
		return
	}
}

// only returns the single online device
func (s *Server) only() (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch len(s.devices) {
	case 0:
		return nil, fmt.Errorf("no devices/emulators found")
	case 1:
		return s.devices[0], nil
	}
	return nil, fmt.Errorf("more than one device/emulator")
}

func (s *Server) bySerial(serial string) (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.Serial == serial {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device '%s' not found", serial)
}

func (s *Server) byTransportID(id string) (*Device, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid transport id '%s'", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.TransportID == n {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no device with transport id '%d'", n)
}

// transport finds the device a host:transport request selects
func (s *Server) transport(service string) (*Device, error) {
	switch {
	case strings.HasPrefix(service, "host:transport:"):
		return s.bySerial(strings.TrimPrefix(service, "host:transport:"))
	case strings.HasPrefix(service, "host:transport-id:"):
		return s.byTransportID(strings.TrimPrefix(service, "host:transport-id:"))
	}
	return s.only()
}

// scoped splits a device scoped host request into its device and
// command, returning a nil device for plain host requests.
func (s *Server) scoped(service string) (d *Device, cmd string, err error) {
	switch {
	case strings.HasPrefix(service, "host-serial:"):
		rest := strings.TrimPrefix(service, "host-serial:")
		s.mu.Lock()
		devices := append([]*Device(nil), s.devices...)
		s.mu.Unlock()
		for _, d := range devices {
			if strings.HasPrefix(rest, d.Serial+":") {
				return d, rest[len(d.Serial)+1:], nil
			}
		}
		i := strings.IndexByte(rest, ':')
		if i < 0 {
			return nil, "", fmt.Errorf("bad request")
		}
		return nil, "", fmt.Errorf("device '%s' not found", rest[:i])
	case strings.HasPrefix(service, "host-transport-id:"):
		rest := strings.TrimPrefix(service, "host-transport-id:")
		i := strings.IndexByte(rest, ':')
		if i < 0 {
			return nil, "", fmt.Errorf("bad request")
		}
		d, err = s.byTransportID(rest[:i])
		return d, rest[i+1:], err
	case strings.HasPrefix(service, "host-usb:"), strings.HasPrefix(service, "host-local:"):
		d, err = s.only()
		return d, service[strings.IndexByte(service, ':')+1:], err
	}
	return nil, strings.TrimPrefix(service, "host:"), nil
}

// deviceList formats the devices as host:devices does
func (s *Server) deviceList(long bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, d := range s.devices {
		if long {
			fmt.Fprintf(&b, "%-22s %s", d.Serial, d.State)
			for _, kv := range [][2]string{{"product", d.Product}, {"model", d.Model}, {"device", d.Device}} {
				if kv[1] != "" {
					fmt.Fprintf(&b, " %s:%s", kv[0], kv[1])
				}
			}
			fmt.Fprintf(&b, " transport_id:%d\n", d.TransportID)
		} else {
			fmt.Fprintf(&b, "%s\t%s\n", d.Serial, d.State)
		}
	}
	return b.String()
}

func (s *Server) hostService(c *Conn, service string) {
	d, cmd, err := s.scoped(service)
	if err != nil {
		_ = c.Fail(err.Error())
		return
	}
	needDevice := func() bool {
		if d != nil {
			return true
		}
		d, err = s.only()
		if err != nil {
			_ = c.Fail(err.Error())
			return false
		}
		return true
	}
	switch {
	case cmd == "version":
		s.mu.Lock()
		v := s.version
		s.mu.Unlock()
		_ = c.Okay()
		_ = c.Frame(fmt.Sprintf("%04x", v))
	case cmd == "kill":
		s.mu.Lock()
		s.killed = true
		s.mu.Unlock()
		_ = c.Okay()
	case cmd == "host-features":
		s.mu.Lock()
		features := strings.Join(s.hostFeatures, ",")
		s.mu.Unlock()
		_ = c.Okay()
		_ = c.Frame(features)
	case cmd == "devices" || cmd == "devices-l":
		_ = c.Okay()
		_ = c.Frame(s.deviceList(cmd == "devices-l"))
	case cmd == "track-devices" || cmd == "track-devices-l":
		_ = c.Okay()
		s.track(c, func() string { return s.deviceList(cmd == "track-devices-l") })
	case cmd == "features":
		if needDevice() {
			_ = c.Okay()
			_ = c.Frame(strings.Join(d.Features, ","))
		}
	case cmd == "get-state":
		if needDevice() {
			_ = c.Okay()
			_ = c.Frame(d.State)
		}
	case cmd == "get-serialno":
		if needDevice() {
			_ = c.Okay()
			_ = c.Frame(d.Serial)
		}
	case cmd == "get-devpath":
		if needDevice() {
			_ = c.Okay()
			_ = c.Frame(d.DevPath)
		}
	case cmd == "list-forward":
		_ = c.Okay()
		_ = c.Frame(s.listForward())
	case strings.HasPrefix(cmd, "forward:"):
		if needDevice() {
			s.forward(c, d, strings.TrimPrefix(cmd, "forward:"))
		}
	case cmd == "killforward-all":
		if needDevice() {
			s.mu.Lock()
			var kept []forward
			for _, f := range s.forwards {
				if f.serial != d.Serial {
					kept = append(kept, f)
				}
			}
			s.forwards = kept
			s.mu.Unlock()
			_ = c.Okay()
			_ = c.Okay()
		}
	case strings.HasPrefix(cmd, "killforward:"):
		if needDevice() {
			s.killForward(c, d, strings.TrimPrefix(cmd, "killforward:"))
		}
	default:
		_ = c.Fail("unknown host service")
	}
}

func (s *Server) listForward() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, f := range s.forwards {
		fmt.Fprintf(&b, "%s %s %s\n", f.serial, f.local, f.remote)
	}
	return b.String()
}

func (s *Server) forward(c *Conn, d *Device, spec string) {
	norebind := strings.HasPrefix(spec, "norebind:")
	spec = strings.TrimPrefix(spec, "norebind:")
	i := strings.IndexByte(spec, ';')
	if i < 0 {
		_ = c.Fail("bad forward: " + spec)
		return
	}
	local, remote := spec[:i], spec[i+1:]
	s.mu.Lock()
	if local == "tcp:0" {
		local = "tcp:" + strconv.Itoa(s.nextPort)
		s.nextPort++
	}
	for j, f := range s.forwards {
		if f.local == local {
			if norebind {
				s.mu.Unlock()
				_ = c.Fail("cannot rebind existing socket")
				return
			}
			s.forwards = append(s.forwards[:j], s.forwards[j+1:]...)
			break
		}
	}
	s.forwards = append(s.forwards, forward{serial: d.Serial, local: local, remote: remote})
	s.mu.Unlock()
	_ = c.Okay()
	_ = c.Okay()
	if strings.HasPrefix(local, "tcp:") {
		_ = c.Frame(strings.TrimPrefix(local, "tcp:"))
	}
}

func (s *Server) killForward(c *Conn, d *Device, local string) {
	s.mu.Lock()
	for j, f := range s.forwards {
		if f.local == local && f.serial == d.Serial {
			s.forwards = append(s.forwards[:j], s.forwards[j+1:]...)
			s.mu.Unlock()
			_ = c.Okay()
			_ = c.Okay()
			return
		}
	}
	s.mu.Unlock()
	_ = c.Fail(fmt.Sprintf("listener '%s' not found", local))
}

// track sends snapshot now and after every change until the client
// closes the connection or the server stops
func (s *Server) track(c *Conn, snapshot func() string) {
	gone := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, c)
		close(gone)
	}()
	for {
		s.mu.Lock()
		changed := s.changed
		s.mu.Unlock()
		if err := c.Frame(snapshot()); err != nil {
			return
		}
		select {
		case <-changed:
		case <-gone:
			return
		case <-s.done:
			return
		}
	}
}

func (d *Device) jdwpList() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	pids := append([]int(nil), d.pids...)
	sort.Ints(pids)
	var b strings.Builder
	for _, pid := range pids {
		fmt.Fprintf(&b, "%d\n", pid)
	}
	return b.String()
}

// run passes cmd to the device handler
func (d *Device) run(cmd *Command) Result {
	if d.Handler != nil {
		return d.Handler(cmd)
	}
	if cmd.Line == "getprop ro.build.version.sdk" {
		return Result{Stdout: strconv.Itoa(d.APILevel) + "\n"}
	}
	return Result{Stderr: cmd.Line + ": not found\n", ExitCode: 127}
}

func (s *Server) deviceService(c *Conn, d *Device, service string) {
	switch {
	case service == "track-jdwp":
		_ = c.Okay()
		s.track(c, d.jdwpList)
	case strings.HasPrefix(service, "exec:"):
		_ = c.Okay()
		line := strings.TrimPrefix(service, "exec:")
		res := d.run(&Command{Service: "exec", Line: line, Args: strings.Fields(line), Stdin: c})
		_, _ = c.Write([]byte(res.Stdout))
	case strings.HasPrefix(service, "shell:"):
		_ = c.Okay()
		line := strings.TrimPrefix(service, "shell:")
		res := d.run(&Command{Service: "shell", Line: line, Args: strings.Fields(line), Stdin: bytes.NewReader(nil)})
		_, _ = c.Write([]byte(res.Stdout + res.Stderr))
	case strings.HasPrefix(service, "abb_exec:"):
		_ = c.Okay()
		args := strings.Split(strings.TrimPrefix(service, "abb_exec:"), "\x00")
		res := d.run(&Command{Service: "abb_exec", Line: strings.Join(args, " "), Args: args, Stdin: c})
		_, _ = c.Write([]byte(res.Stdout))
	case strings.HasPrefix(service, "shell,v2,raw:"):
		_ = c.Okay()
		s.shellV2(c, d, strings.TrimPrefix(service, "shell,v2,raw:"))
	case service == "sync:":
		_ = c.Okay()
		s.sync(c, d)
	case strings.HasPrefix(service, "reverse:"):
		s.reverse(c, d, strings.TrimPrefix(service, "reverse:"))
	case strings.HasPrefix(service, "jdwp:"):
		s.jdwp(c, d, strings.TrimPrefix(service, "jdwp:"))
	default:
		_ = c.Fail("unknown device service")
	}
}

// reverse handles the reverse: services of d. The device side socket
// is kept in forward.local.
func (s *Server) reverse(c *Conn, d *Device, cmd string) {
	switch {
	case cmd == "list-forward":
		d.mu.Lock()
		var b strings.Builder
		for _, r := range d.reverses {
			fmt.Fprintf(&b, "UsbFfs %s %s\n", r.local, r.remote)
		}
		d.mu.Unlock()
		_ = c.Okay()
		_ = c.Frame(b.String())
	case cmd == "killforward-all":
		d.mu.Lock()
		d.reverses = nil
		d.mu.Unlock()
		_ = c.Okay()
		_ = c.Okay()
	case strings.HasPrefix(cmd, "killforward:"):
		remote := strings.TrimPrefix(cmd, "killforward:")
		d.mu.Lock()
		for j, r := range d.reverses {
			if r.local == remote {
				d.reverses = append(d.reverses[:j], d.reverses[j+1:]...)
				d.mu.Unlock()
				_ = c.Okay()
				_ = c.Okay()
				return
			}
		}
		d.mu.Unlock()
		_ = c.Fail(fmt.Sprintf("listener '%s' not found", remote))
	case strings.HasPrefix(cmd, "forward:"):
		spec := strings.TrimPrefix(cmd, "forward:")
		norebind := strings.HasPrefix(spec, "norebind:")
		spec = strings.TrimPrefix(spec, "norebind:")
		i := strings.IndexByte(spec, ';')
		if i < 0 {
			_ = c.Fail("bad reverse forward: " + spec)
			return
		}
		remote, local := spec[:i], spec[i+1:]
		s.mu.Lock()
		if remote == "tcp:0" {
			remote = "tcp:" + strconv.Itoa(s.nextPort)
			s.nextPort++
		}
		s.mu.Unlock()
		d.mu.Lock()
		for j, r := range d.reverses {
			if r.local == remote {
				if norebind {
					d.mu.Unlock()
					_ = c.Fail("cannot rebind existing socket")
					return
				}
				d.reverses = append(d.reverses[:j], d.reverses[j+1:]...)
				break
			}
		}
		d.reverses = append(d.reverses, forward{serial: d.Serial, local: remote, remote: local})
		d.mu.Unlock()
		_ = c.Okay()
		_ = c.Okay()
		if strings.HasPrefix(remote, "tcp:") {
			_ = c.Frame(strings.TrimPrefix(remote, "tcp:"))
		}
	default:
		_ = c.Fail("unknown reverse service")
	}
}

// jdwp answers the JDWP handshake of a known process then echoes
func (s *Server) jdwp(c *Conn, d *Device, arg string) {
	pid, err := strconv.Atoi(arg)
	known := false
	d.mu.Lock()
	for _, p := range d.pids {
		known = known || (err == nil && p == pid)
	}
	d.mu.Unlock()
	if !known {
		_ = c.Fail("no such process " + arg)
		return
	}
	_ = c.Okay()
	_, _ = io.Copy(c, c)
}

func writeShellPacket(w io.Writer, id byte, payload string) {
	header := make([]byte, 5)
	header[0] = id
	binary.LittleEndian.PutUint32(header[1:], uint32(len(payload)))
	_, _ = w.Write(append(header, payload...))
}

// shellV2 reads stdin packets until stdin is closed then runs line.
// With IgnoreStdin set line runs straight away.
func (s *Server) shellV2(c *Conn, d *Device, line string) {
	var stdin bytes.Buffer
	for !d.IgnoreStdin {
		var header [5]byte
		if _, err := io.ReadFull(c, header[:]); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(header[1:]))
		if _, err := io.ReadFull(c, payload); err != nil {
			return
		}
		if header[0] == 4 {
			break
		}
		if header[0] == 0 {
			stdin.Write(payload)
		}
	}
	res := d.run(&Command{Service: "shell,v2", Line: line, Args: strings.Fields(line), Stdin: &stdin})
	if res.Stdout != "" {
		writeShellPacket(c, 1, res.Stdout)
	}
	if res.Stderr != "" {
		writeShellPacket(c, 2, res.Stderr)
	}
	writeShellPacket(c, 3, string([]byte{byte(res.ExitCode)}))
}

func syncReply(w io.Writer, id, msg string) {
	buf := make([]byte, 8, 8+len(msg))
	copy(buf, id)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(msg)))
	_, _ = w.Write(append(buf, msg...))
}

// sync handles SEND, RECV and QUIT
func (s *Server) sync(c *Conn, d *Device) {
	for {
		var header [8]byte
		if _, err := io.ReadFull(c, header[:]); err != nil {
			return
		}
		id := string(header[:4])
		n := binary.LittleEndian.Uint32(header[4:])
		switch id {
		case "QUIT":
			return
		case "RECV":
			buf := make([]byte, n)
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
			d.mu.Lock()
			f, ok := d.files[string(buf)]
			d.mu.Unlock()
			if !ok {
				syncReply(c, "FAIL", "No such file or directory")
				continue
			}
			for data := f.Data; len(data) > 0; {
				chunk := data
				if len(chunk) > 64*1024 {
					chunk = chunk[:64*1024]
				}
				syncReply(c, "DATA", string(chunk))
				data = data[len(chunk):]
			}
			syncReply(c, "DONE", "")
		case "SEND":
			buf := make([]byte, n)
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
			pathAndMode := string(buf)
			comma := strings.LastIndexByte(pathAndMode, ',')
			if comma < 0 {
				syncReply(c, "FAIL", "missing mode")
				return
			}
			mode, _ := strconv.ParseUint(pathAndMode[comma+1:], 10, 32)
			path := pathAndMode[:comma]
			var data bytes.Buffer
			var mtime uint32
			for done := false; !done; {
				if _, err := io.ReadFull(c, header[:]); err != nil {
					return
				}
				n := binary.LittleEndian.Uint32(header[4:])
				switch string(header[:4]) {
				case "DATA":
					if _, err := io.CopyN(&data, c, int64(n)); err != nil {
						return
					}
				case "DONE":
					mtime = n
					done = true
				default:
					syncReply(c, "FAIL", "unexpected "+string(header[:4]))
					return
				}
			}
			if !strings.HasPrefix(path, "/") {
				syncReply(c, "FAIL", "remote path must be absolute")
				continue
			}
			d.mu.Lock()
			if d.files == nil {
				d.files = make(map[string]File)
			}
			d.files[path] = File{Data: data.Bytes(), Mode: uint32(mode), Mtime: mtime}
			d.mu.Unlock()
			syncReply(c, "OKAY", "")
		default:
			syncReply(c, "FAIL", "unknown sync request "+id)
			return
		}
	}
}
