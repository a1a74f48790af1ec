// Command airmouse turns hand gestures seen by a webcam into pointer, scroll,
// zoom, volume and screenshot actions.
package main

func main() {
	Execute()
}
