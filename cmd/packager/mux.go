package main

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iofile"
	"github.com/shaka-project/shaka-packager-sub006/pkg/keysource"
	"github.com/shaka-project/shaka-packager-sub006/pkg/listener"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
	"github.com/shaka-project/shaka-packager-sub006/pkg/webm"
	"github.com/shaka-project/shaka-packager-sub006/pkg/webvtt"
	"github.com/spf13/cobra"
)

var log = logging.Get("/packager/cmd")

type muxFlags struct {
	input             string
	output            string
	segmentTemplate   string
	segmentDurationMS int64

	keyID string
	key   string
	iv    string

	licenseServer     string
	contentID         string
	policy            string
	signerName        string
	signerSecret      string
	rsaSigning        bool
	firstCryptoPeriod int64
	cryptoPeriodCount int64
}

func newMuxCommand() *cobra.Command {
	var f muxFlags
	cmd := &cobra.Command{
		Use:   "mux",
		Short: "Package a WebVTT or WebM input into segmented WebVTT output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMux(&f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.input, "input", "", "input file (URL-scheme prefixed; .vtt is read as plain WebVTT text)")
	flags.StringVar(&f.output, "output", "", "single output file (mutually exclusive with --segment-template)")
	flags.StringVar(&f.segmentTemplate, "segment-template", "", "output segment template, must contain $Number$")
	flags.Int64Var(&f.segmentDurationMS, "segment-duration-ms", 10000, "segment duration in milliseconds")

	flags.StringVar(&f.keyID, "key-id", "", "fixed key id, hex")
	flags.StringVar(&f.key, "key", "", "fixed content key, hex")
	flags.StringVar(&f.iv, "iv", "", "fixed IV, hex")

	flags.StringVar(&f.licenseServer, "license-server", "", "Widevine-style license server URL")
	flags.StringVar(&f.contentID, "content-id", "", "content id sent to the license server")
	flags.StringVar(&f.policy, "policy", "", "policy name sent to the license server")
	flags.StringVar(&f.signerName, "signer", "", "request signer name")
	flags.StringVar(&f.signerSecret, "signer-secret", "", "request signer secret: hex-encoded AES key, or a path to a PEM-encoded RSA private key when --rsa-signing is set")
	flags.BoolVar(&f.rsaSigning, "rsa-signing", false, "sign license requests with RSA-PSS instead of AES-CBC")
	flags.Int64Var(&f.firstCryptoPeriod, "first-crypto-period", -1, "enables crypto-period rotation starting at this index")
	flags.Int64Var(&f.cryptoPeriodCount, "crypto-period-count", 0, "crypto periods fetched per license request")

	return cmd
}

func runMux(f *muxFlags) error {
	opts := &muxeroptions.MuxerOptions{
		OutputFileName:     f.output,
		SegmentTemplate:    f.segmentTemplate,
		SegmentDurationMS:  f.segmentDurationMS,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	in, err := iofile.Open(f.input, iofile.ReadMode)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	keySrc, err := buildKeySource(f)
	if err != nil {
		return err
	}

	l := listener.NewCombinedMuxerListener(newLoggingListener())

	segmenter := webvtt.NewSegmenter(f.segmentDurationMS)
	writer := webvtt.NewOutputHandler(opts, l)
	if err := segmenter.Node().Connect(0, writer); err != nil {
		return err
	}

	if strings.HasSuffix(f.input, ".vtt") {
		return runWebVTTPipeline(in, segmenter)
	}
	return runWebMPipeline(in, segmenter, keySrc)
}

func runWebVTTPipeline(in iofile.File, segmenter *webvtt.Segmenter) error {
	size := in.Size()
	if size == iofile.SizeUnknown {
		return fmt.Errorf("mux: webvtt input requires a file with a known size")
	}
	buf := make([]byte, size)
	if _, err := in.Read(buf); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	parser := webvtt.NewParser()
	if err := parser.Node().Connect(0, segmenter); err != nil {
		return err
	}

	st := parser.Parse(string(buf))
	if !st.Ok() {
		return fmt.Errorf("parsing webvtt input: %s", st.Error())
	}
	st = st.Update(parser.OnFlushRequest(0))
	if !st.Ok() {
		return fmt.Errorf("flushing pipeline: %s", st.Error())
	}
	return nil
}

func runWebMPipeline(in iofile.File, segmenter *webvtt.Segmenter, keySrc keysource.EncryptionKeySource) error {
	parser := webm.NewStreamParser(keySrc)
	const chunkSize = 64 << 10
	buf := make([]byte, chunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if st := parser.Parse(buf[:n]); !st.Ok() {
				return fmt.Errorf("parsing webm input: %s", st.Error())
			}
		}
		if readErr != nil || n == 0 {
			break
		}
	}

	if parser.NumOutputStreams() == 0 {
		return fmt.Errorf("mux: no text track found in webm input")
	}
	if err := parser.Node().Connect(0, segmenter); err != nil {
		return err
	}
	if st := parser.OnFlushRequest(0); !st.Ok() {
		return fmt.Errorf("flushing pipeline: %s", st.Error())
	}
	return nil
}

func buildKeySource(f *muxFlags) (keysource.EncryptionKeySource, error) {
	switch {
	case f.licenseServer != "":
		signer, err := buildSigner(f)
		if err != nil {
			return nil, err
		}
		return keysource.NewRemoteKeySource(keysource.RemoteKeySourceConfig{
			ServerURL:         f.licenseServer,
			ContentID:         []byte(f.contentID),
			Policy:            f.policy,
			Signer:            signer,
			RotationEnabled:   f.firstCryptoPeriod >= 0,
			FirstCryptoPeriod: f.firstCryptoPeriod,
			CryptoPeriodCount: f.cryptoPeriodCount,
		}), nil
	case f.keyID != "":
		return keysource.NewFixedKeySource(f.keyID, f.key, f.iv)
	default:
		return nil, nil
	}
}

func buildSigner(f *muxFlags) (keysource.Signer, error) {
	if f.rsaSigning {
		key, err := loadRSAPrivateKey(f.signerSecret)
		if err != nil {
			return nil, fmt.Errorf("loading RSA signer key: %w", err)
		}
		return keysource.NewRSAPSSSigner(f.signerName, key), nil
	}
	secret, err := hex.DecodeString(f.signerSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding signer secret: %w", err)
	}
	return keysource.NewAESCBCSigner(f.signerName, secret)
}

// loadRSAPrivateKey reads a PEM-encoded RSA private key (PKCS#1 or PKCS#8)
// from the file at path.
func loadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PEM block does not contain an RSA private key")
	}
	return key, nil
}
