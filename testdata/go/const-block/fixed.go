package config

const (
	Debug   = 1
	Verbose = 2
	Quiet   = 3
)

func run() {
	a   := 1
	bcd := 2
}
