// Interactive command line client for manual testing against a running
// server. Slash commands map to protocol commands; anything else is sent as
// a room message.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("chat_client: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:5050", "server address")
	user := flag.String("user", "cli-user", "username to log in with")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Commands: /create <name>, /join <n>, /list, /leave, /exit.")
	fmt.Println("Anything else is sent as a room message.")

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(conn)
	}()

	send(conn, proto.CmdUsernameSubmit, *user)
	writeLoop(conn)

	<-done
	return nil
}

func readLoop(conn net.Conn) {
	r := bufio.NewReader(conn)
	var frame strings.Builder
	for {
		chunk, err := r.ReadString('\n')
		frame.WriteString(chunk)
		if err != nil {
			fmt.Println("connection closed")
			return
		}
		if !strings.HasSuffix(frame.String(), "\r\n") {
			continue
		}
		line := strings.TrimSuffix(frame.String(), "\r\n")
		frame.Reset()
		if len(line) > 2 {
			fmt.Printf("[%s] %s\n", proto.CommandName(line[0]), line[2:])
		}
	}
}

func writeLoop(conn net.Conn) {
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		text := strings.TrimSpace(in.Text())
		if text == "" {
			continue
		}

		switch {
		case text == "/exit":
			send(conn, proto.CmdExit, "bye")
			return
		case text == "/list":
			send(conn, proto.CmdRoomList, "list")
		case text == "/leave":
			send(conn, proto.CmdRoomLeave, "leave")
		case strings.HasPrefix(text, "/create "):
			send(conn, proto.CmdRoomCreate, strings.TrimPrefix(text, "/create "))
		case strings.HasPrefix(text, "/join "):
			send(conn, proto.CmdRoomJoin, strings.TrimPrefix(text, "/join "))
		default:
			send(conn, proto.CmdRoomMessage, text)
		}
	}
}

func send(conn net.Conn, cmd byte, content string) {
	if _, err := conn.Write(proto.Frame{Cmd: cmd, Content: content}.Encode()); err != nil {
		log.Printf("send: %v", err)
	}
}
