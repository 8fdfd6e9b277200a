// Command vapctl is an operator console for the vaporizer firmware.
//
// Without arguments it starts an interactive shell; with -e the remaining
// arguments run as a single command, e.g.
//
//	vapctl -port /dev/ttyACM0 -e valve 400
package main

func main() {
	Main()
}
