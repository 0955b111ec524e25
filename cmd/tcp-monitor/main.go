package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"readinghub/pkg/models"
)

func main() {
	addr := "127.0.0.1:9090"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected to TCP sync:", addr)
	fmt.Println("Waiting for progress events...")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var ev models.ProgressEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			fmt.Println("raw:", sc.Text())
			continue
		}
		fmt.Println(format(ev))
	}
	fmt.Println("Disconnected.")
}

func format(ev models.ProgressEvent) string {
	line := fmt.Sprintf("%s user=%s %q page %d/%d (+%d) %s",
		time.Unix(ev.Timestamp, 0).Format(time.TimeOnly), ev.UserID, ev.Title,
		ev.CurrentPage, ev.TotalPages, ev.PagesRead, ev.Status)
	if ev.JustCompleted {
		line += " [finished]"
	}
	return line
}
