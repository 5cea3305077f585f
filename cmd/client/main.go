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

	"github.com/frekui/snowpake"
	"github.com/frekui/snowpake/internal/pkg/util"
)

const realm = "snowpake-demo"

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

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%s is a simple example client exercising the snowpake engine. It can be used together with cmd/server.\nUsage:\n", os.Args[0])
		flag.PrintDefaults()
	}

	addr := flag.String("conn", "localhost:9999", "Host to connect to.")
	handshake := flag.Bool("handshake", false, "Run the ephemeral-DH handshake and exchange a message over the session channel.")
	pwreg := flag.Bool("pwreg", false, "Register a password verifier.")
	login := flag.Bool("login", false, "Run a password login.")
	mobile := flag.Bool("mobile", false, "Use the mobile password profile instead of desktop.")
	serverKeyHex := flag.String("serverkey", "", "Server's static public key, hex-encoded (64 bytes), required for -handshake.")
	username := flag.String("username", "", "Username")
	password := flag.String("password", "", "Password")
	flag.Parse()

	chosen := 0
	for _, b := range []bool{*handshake, *pwreg, *login} {
		if b {
			chosen++
		}
	}
	if chosen != 1 {
		fmt.Fprintf(os.Stderr, "Exactly one of -handshake, -pwreg, and -login must be given.\n")
		flag.Usage()
		os.Exit(1)
	}

	profile := snowpake.DesktopProfile
	if *mobile {
		profile = snowpake.MobileProfile
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	switch {
	case *handshake:
		var spBytes []byte
		var sp [64]byte
		if n, err := fmt.Sscanf(*serverKeyHex, "%x", &spBytes); err != nil || n != 1 || len(spBytes) != len(sp) {
			fmt.Fprintf(os.Stderr, "-serverkey must be a 64-byte hex string\n")
			os.Exit(1)
		}
		copy(sp[:], spBytes)
		if err := util.Write(w, []byte("handshake")); err != nil {
			fmt.Fprintf(os.Stderr, "handshake: %s\n", err)
			os.Exit(1)
		}
		if err := doHandshake(r, w, sp); err != nil {
			fmt.Fprintf(os.Stderr, "handshake: %s\n", err)
			os.Exit(1)
		}
	case *pwreg:
		if err := util.Write(w, []byte("pwreg")); err != nil {
			fmt.Fprintf(os.Stderr, "pwreg: %s\n", err)
			os.Exit(1)
		}
		if err := doPwreg(r, w, profile, *username, *password); err != nil {
			fmt.Fprintf(os.Stderr, "pwreg: %s\n", err)
			os.Exit(1)
		}
	case *login:
		if err := util.Write(w, []byte("login")); err != nil {
			fmt.Fprintf(os.Stderr, "login: %s\n", err)
			os.Exit(1)
		}
		if err := doLogin(r, w, profile, *username, *password); err != nil {
			fmt.Fprintf(os.Stderr, "login: %s\n", err)
			os.Exit(1)
		}
	}
}

func doHandshake(r *bufio.Reader, w *bufio.Writer, sp [64]byte) error {
	cli, err := snowpake.NewClient(nil)
	if err != nil {
		return err
	}
	req, err := cli.Request()
	if err != nil {
		return err
	}
	data1, err := json.Marshal(handshakeRequestMsg{Request: req[:]})
	if err != nil {
		return err
	}
	if err := util.Write(w, data1); err != nil {
		return err
	}

	data2, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg2 handshakeResponseMsg
	if err := json.Unmarshal(data2, &msg2); err != nil {
		return err
	}
	var response [snowpake.ServerResponseSize]byte
	copy(response[:], msg2.Response)

	sessionKey, err := cli.Finish(sp, response)
	if err != nil {
		return err
	}

	plaintext, err := util.ReadAndDecrypt(r, sessionKey[:])
	if err != nil {
		return err
	}
	fmt.Printf("Received %q over the session channel\n", plaintext)
	toServer := "Hi server!"
	fmt.Printf("Sending %q over the session channel\n", toServer)
	return util.EncryptAndWrite(w, sessionKey[:], toServer)
}

func doPwreg(r *bufio.Reader, w *bufio.Writer, profile snowpake.Profile, username, password string) error {
	v, err := snowpake.GenerateVerifier(profile, username, realm, password)
	if err != nil {
		return err
	}
	data1, err := json.Marshal(pwregMsg{Username: username, Verifier: v.Bytes()})
	if err != nil {
		return err
	}
	if err := util.Write(w, data1); err != nil {
		return err
	}

	final, err := util.Read(r)
	if err != nil {
		return err
	}
	if string(final) != "ok" {
		return fmt.Errorf("expected final ok, got %s", string(final))
	}
	return nil
}

func doLogin(r *bufio.Reader, w *bufio.Writer, profile snowpake.Profile, username, password string) error {
	data1, err := json.Marshal(loginInitMsg{Username: username})
	if err != nil {
		return err
	}
	if err := util.Write(w, data1); err != nil {
		return err
	}

	data2, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg2 loginChallengeMsg
	if err := json.Unmarshal(data2, &msg2); err != nil {
		return err
	}

	// A real deployment pins the server's static public key out of band;
	// the demo trusts whatever key the server claims in the challenge
	// message, which is enough to exercise the proof transcript but not a
	// substitute for pinning.
	var sp [64]byte
	copy(sp[:], msg2.ServerPublicKey)

	clientMsg, serverVerifier, err := snowpake.ClientProof(profile, username, realm, password, sp, msg2.Challenge)
	if err != nil {
		return err
	}
	data3, err := json.Marshal(loginProofMsg{Proof: clientMsg})
	if err != nil {
		return err
	}
	if err := util.Write(w, data3); err != nil {
		return err
	}

	data4, err := util.Read(r)
	if err != nil {
		return err
	}
	var msg4 loginResultMsg
	if err := json.Unmarshal(data4, &msg4); err != nil {
		return err
	}
	if msg4.Err != "" {
		return fmt.Errorf("server rejected login: %s", msg4.Err)
	}
	var serverProof [32]byte
	copy(serverProof[:], msg4.ServerProof)
	if !snowpake.ClientVerify(serverVerifier, serverProof) {
		return fmt.Errorf("server proof did not match: possible impersonation")
	}
	fmt.Println("Login succeeded; server proved knowledge of its static key binding")
	return nil
}
