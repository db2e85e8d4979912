package domain

// Server describes one MML switch reachable over SSH.
type Server struct {
	Name     string
	Host     string
	Port     int
	User     string
	Password string
}

// Phone describes one test handset reachable through the device bridge.
type Phone struct {
	ID     string
	Addr   string // ip:port as passed to adb
	MSISDN string
}

// CheckResult is the outcome of checking one MSISDN on one server.
type CheckResult struct {
	Server     Server
	Found      bool
	Ambiguous  bool
	Transcript string
	Err        error
}
