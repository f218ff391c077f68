package webvtt

import (
	"fmt"
	"strings"

	"github.com/shaka-project/shaka-packager-sub006/pkg/handler"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

// Parser reads a complete WebVTT text document and emits one StreamInfo
// followed by one TextSample per cue. Grounded on
// packager/media/formats/webvtt/webvtt_media_parser.cc's block-oriented
// reading (a STYLE/REGION preamble followed by a sequence of cue blocks),
// simplified to a single-shot Parse since this module's substrate always
// hands the whole document to the muxer before segmenting it.
type Parser struct {
	handler.BaseHandler

	node *handler.Node
}

// NewParser builds a WebVTT text parser.
func NewParser() *Parser {
	p := &Parser{}
	p.node = handler.NewNode(p)
	return p
}

// Node exposes the handler.Node wrapper so callers can Connect downstream
// handlers.
func (p *Parser) Node() *handler.Node { return p.node }

func (p *Parser) Process(data *handler.StreamData) status.Status {
	return status.New(status.InvalidArgument, "webvtt parser is a text source, not a StreamData sink")
}

func (p *Parser) OnFlushRequest(inputIndex int) status.Status {
	return p.node.FlushAllDownstreams()
}

var _ handler.MediaHandler = (*Parser)(nil)

// Parse splits input into blocks separated by blank lines, validates the
// WEBVTT header, concatenates any STYLE/REGION blocks verbatim into the
// emitted StreamInfo's style/region config, parses every remaining block
// as a cue, and dispatches them downstream in order.
func (p *Parser) Parse(input string) status.Status {
	blocks := splitBlocks(input)
	if len(blocks) == 0 || strings.TrimSpace(blocks[0]) != "WEBVTT" {
		return status.New(status.ParserFailure, "webvtt: input is missing the WEBVTT header")
	}
	blocks = blocks[1:]

	var styleRegions strings.Builder
	var cueBlocks []string
	for _, b := range blocks {
		trimmed := strings.TrimSpace(b)
		if strings.HasPrefix(trimmed, "STYLE") || strings.HasPrefix(trimmed, "REGION") {
			styleRegions.WriteString(b)
			styleRegions.WriteString("\n\n")
			continue
		}
		if trimmed == "" {
			continue
		}
		cueBlocks = append(cueBlocks, b)
	}

	info := &media.StreamInfo{
		CodecTag:  "wvtt",
		TimeScale: 1000,
		Text:      &media.TextInfo{StyleRegions: styleRegions.String()},
	}
	st := p.node.DispatchStreamInfo(0, info)
	if !st.Ok() {
		return st
	}

	for _, b := range cueBlocks {
		sample, err := parseCueBlock(b)
		if err != nil {
			log.Warn("dropping malformed cue block", "error", err)
			continue
		}
		st = st.Update(p.node.DispatchTextSample(0, sample))
	}
	return st
}

// splitBlocks splits a WebVTT document on blank lines, tolerating both
// "\n\n" and "\r\n\r\n" separators.
func splitBlocks(input string) []string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	raw := strings.Split(normalized, "\n\n")
	var blocks []string
	for _, b := range raw {
		if strings.TrimSpace(b) != "" {
			blocks = append(blocks, strings.TrimRight(b, "\n"))
		}
	}
	return blocks
}

// parseCueBlock parses one cue block: an optional id line, the
// "start --> end [settings]" timing line, and one or more payload lines.
func parseCueBlock(block string) (*media.TextSample, error) {
	lines := strings.Split(block, "\n")

	idx := 0
	var id string
	if idx < len(lines) && !strings.Contains(lines[idx], "-->") {
		id = lines[idx]
		idx++
	}
	if idx >= len(lines) || !strings.Contains(lines[idx], "-->") {
		return nil, fmt.Errorf("webvtt: cue block is missing its timing line: %q", block)
	}

	timingFields := strings.SplitN(lines[idx], "-->", 2)
	startMS, err := ParseTimestamp(strings.TrimSpace(timingFields[0]))
	if err != nil {
		return nil, err
	}
	endAndSettings := strings.Fields(strings.TrimSpace(timingFields[1]))
	if len(endAndSettings) == 0 {
		return nil, fmt.Errorf("webvtt: cue block is missing its timing line: %q", block)
	}
	endMS, err := ParseTimestamp(endAndSettings[0])
	if err != nil {
		return nil, err
	}
	settings := strings.Join(endAndSettings[1:], " ")
	idx++

	payload := strings.Join(lines[idx:], "\n")

	return &media.TextSample{
		ID:       id,
		StartMS:  startMS,
		EndMS:    endMS,
		Settings: settings,
		Payload:  payload,
	}, nil
}
