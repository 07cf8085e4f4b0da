// A reference prover client for the built-in verifier protocol: upgrade
// to websocket, commit, deliver the transcript, collect the result, and
// optionally request a signed attestation.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/sorens/notary/internal/adapters/wstream"
	"github.com/sorens/notary/internal/signing"
)

type proverFrame struct {
	Type       string `json:"type"`
	Data       string `json:"data,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	host := flag.String("host", "127.0.0.1", "notary host")
	port := flag.Int("port", 3000, "notary port")
	transcript := flag.String("transcript", "x", "transcript material to notarize")
	sign := flag.Bool("sign", false, "request a signed attestation after the result")
	flag.Parse()

	url := fmt.Sprintf("ws://%s:%d/notarize?context_format=json", *host, *port)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("dial")
	}
	stream := wstream.NewMessageStream(conn)
	defer stream.Close()

	steps := []proverFrame{
		{Type: "commit", Data: "prover-config"},
		{Type: "transcript", Data: *transcript, ServerName: "example.com"},
	}
	for _, out := range steps {
		if err := signing.WriteMessage(stream, &out); err != nil {
			log.Fatal().Err(err).Str("type", out.Type).Msg("send")
		}
		var in proverFrame
		if err := signing.ReadMessage(stream, &in); err != nil {
			log.Fatal().Err(err).Msg("receive")
		}
		log.Info().Str("sent", out.Type).Str("got", in.Type).Msg("exchange")
	}

	var result json.RawMessage
	if err := signing.ReadMessage(stream, &result); err != nil {
		log.Fatal().Err(err).Msg("reading result")
	}
	fmt.Printf("result: %s\n", result)

	if !*sign {
		return
	}

	var ctxMsg signing.NotaryMessage
	if err := signing.ReadMessage(stream, &ctxMsg); err != nil {
		log.Fatal().Err(err).Msg("reading context message")
	}
	if err := signing.WriteMessage(stream, &signing.ProverMessage{Type: signing.TypeSignRequest}); err != nil {
		log.Fatal().Err(err).Msg("sending sign request")
	}
	var signed signing.NotaryMessage
	if err := signing.ReadMessage(stream, &signed); err != nil {
		log.Fatal().Err(err).Msg("reading signed message")
	}
	fmt.Printf("signed: format=%s algorithm=%s\nsignature=%s\npublic_key=%s\n",
		signed.Format, signed.Algorithm, signed.Signature, signed.PublicKey)
}
