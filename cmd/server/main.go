// Copyright (c) 2018 Fredrik Kuivinen, frekui@gmail.com
//
// Use of this source code is governed by the BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/frekui/snowpake"
	"github.com/frekui/snowpake/internal/pkg/util"
)

// handshakeRequestMsg and handshakeResponseMsg carry the two handshake
// wire messages verbatim; encoding/json base64-encodes the []byte fields.
type handshakeRequestMsg struct {
	Request []byte
}

type handshakeResponseMsg struct {
	Response []byte
}

type pwregMsg struct {
	Username string
	Verifier []byte
}

type loginInitMsg struct {
	Username string
}

type loginChallengeMsg struct {
	Challenge       []byte
	ServerPublicKey []byte
}

type loginProofMsg struct {
	Proof []byte
}

type loginResultMsg struct {
	ServerProof []byte
	Err         string
}

var srv *snowpake.Server

var (
	usersMu sync.Mutex
	users   = map[string]snowpake.Verifier{}
)

var profile = snowpake.DesktopProfile

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%s is a simple example server exercising the snowpake engine's handshake and password engines. It can be used together with cmd/client.\nUsage:\n", os.Args[0])
		flag.PrintDefaults()
	}

	addr := flag.String("l", ":9999", "Address to listen on.")
	mobile := flag.Bool("mobile", false, "Use the mobile password profile instead of desktop.")
	flag.Parse()
	if *mobile {
		profile = snowpake.MobileProfile
	}

	var err error
	srv, err = snowpake.Generate(nil)
	if err != nil {
		panic(err)
	}
	defer srv.Clear()

	sp, err := srv.PublicKey()
	if err != nil {
		panic(err)
	}
	fmt.Printf("Static public key (pass to cmd/client -serverkey): %x\n", sp)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			continue
		}
		go handleConn(conn)
	}
}

func handleConn(conn net.Conn) {
	defer conn.Close()
	fmt.Printf("Got connection from %s\n", conn.RemoteAddr())
	if err := doHandleConn(conn); err != nil {
		fmt.Printf("doHandleConn: %s\n", err)
	}
}

func doHandleConn(conn net.Conn) error {
	r := bufio.NewReader(conn)
	cmd, err := util.Read(r)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(conn)
	switch string(cmd) {
	case "handshake":
		if err := handleHandshake(r, w); err != nil {
			return fmt.Errorf("handshake: %s", err)
		}
	case "pwreg":
		if err := handlePwreg(r, w); err != nil {
			return fmt.Errorf("pwreg: %s", err)
		}
	case "login":
		if err := handleLogin(r, w); err != nil {
			return fmt.Errorf("login: %s", err)
		}
	default:
		return fmt.Errorf("unknown command '%s'", string(cmd))
	}
	return nil
}

func handleHandshake(r *bufio.Reader, w *bufio.Writer) error {
	data1, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg1 handshakeRequestMsg
	if err := json.Unmarshal(data1, &msg1); err != nil {
		return err
	}
	var request [snowpake.ClientRequestSize]byte
	copy(request[:], msg1.Request)

	response, sessionKey, err := srv.Handshake(request)
	if err != nil {
		return err
	}

	data2, err := json.Marshal(handshakeResponseMsg{Response: response[:]})
	if err != nil {
		return err
	}
	if err := util.Write(w, data2); err != nil {
		return err
	}

	toClient := "Hi client!"
	fmt.Printf("Sending %q over the session channel\n", toClient)
	if err := util.EncryptAndWrite(w, sessionKey[:], toClient); err != nil {
		return err
	}
	plaintext, err := util.ReadAndDecrypt(r, sessionKey[:])
	if err != nil {
		return err
	}
	fmt.Printf("Received %q over the session channel\n", plaintext)
	return nil
}

func handlePwreg(r *bufio.Reader, w *bufio.Writer) error {
	data1, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg1 pwregMsg
	if err := json.Unmarshal(data1, &msg1); err != nil {
		return err
	}
	v, err := snowpake.VerifierFromBytes(profile, msg1.Verifier)
	if err != nil {
		return err
	}

	usersMu.Lock()
	users[msg1.Username] = v
	usersMu.Unlock()

	fmt.Printf("Registered verifier for user %q\n", msg1.Username)
	return util.Write(w, []byte("ok"))
}

func handleLogin(r *bufio.Reader, w *bufio.Writer) error {
	data1, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg1 loginInitMsg
	if err := json.Unmarshal(data1, &msg1); err != nil {
		return err
	}

	usersMu.Lock()
	v, ok := users[msg1.Username]
	usersMu.Unlock()
	if !ok {
		return fmt.Errorf("no such user %q", msg1.Username)
	}

	challenge, secret, err := srv.ServerChallenge(profile, v)
	if err != nil {
		return err
	}
	sp, err := srv.PublicKey()
	if err != nil {
		return err
	}
	data2, err := json.Marshal(loginChallengeMsg{Challenge: challenge, ServerPublicKey: sp[:]})
	if err != nil {
		return err
	}
	if err := util.Write(w, data2); err != nil {
		return err
	}

	data3, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg3 loginProofMsg
	if err := json.Unmarshal(data3, &msg3); err != nil {
		return err
	}

	serverProof, err := srv.ServerProof(secret, msg3.Proof)
	var result loginResultMsg
	if err != nil {
		result.Err = err.Error()
	} else {
		result.ServerProof = serverProof[:]
		fmt.Printf("User %q authenticated\n", msg1.Username)
	}
	data4, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return util.Write(w, data4)
}
