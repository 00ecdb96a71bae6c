// holofan drives a holographic LED fan display: chat replies are
// rendered as spinning text animations and streamed to the fan over
// HTTP, with optional speech playback alongside.
package main

func main() {
	Execute()
}
