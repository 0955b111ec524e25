package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"readinghub/internal/udpnotify"
)

// usage: udp-monitor [server] [token]
//
// Without a token only broadcasts arrive; with a login token the monitor
// also receives that user's notifications.
func main() {
	server := "127.0.0.1:7070"
	if len(os.Args) > 1 {
		server = os.Args[1]
	}
	subscribe := "SUBSCRIBE"
	if len(os.Args) > 2 {
		subscribe += " " + os.Args[2]
	}

	serverAddr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve:", err)
		os.Exit(1)
	}

	// one socket both subscribes and receives
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte(subscribe), serverAddr); err != nil {
		fmt.Fprintln(os.Stderr, "subscribe:", err)
		os.Exit(1)
	}

	fmt.Println("UDP monitor subscribed to:", server)
	fmt.Println("Local addr:", conn.LocalAddr().String())
	fmt.Println("Waiting for notifications...")

	buf := make([]byte, 4096)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			fmt.Println("read error:", err)
			continue
		}
		var note udpnotify.Notification
		if err := json.Unmarshal(buf[:n], &note); err != nil {
			fmt.Printf("FROM %s: %s\n", from.String(), string(buf[:n]))
			continue
		}
		fmt.Printf("%s [%s] %s\n", time.Unix(note.Timestamp, 0).Format(time.TimeOnly), note.Type, note.Message)
	}
}
