package controller

import (
	"net"
	"testing"

	"github.com/glyphlang/rdb/pkg/proto"
	"github.com/glyphlang/rdb/pkg/vmvalue"
	"github.com/stretchr/testify/require"
)

func TestTokenizeQuotedSpan(t *testing.T) {
	toks, err := Tokenize(`sb "my script.lua" 10`)
	require.NoError(t, err)
	require.Equal(t, []string{"sb", "my script.lua", "10"}, toks)
}

func TestTokenizeUnterminatedQuoteErrors(t *testing.T) {
	_, err := Tokenize(`sb "unterminated 10`)
	require.Error(t, err)
}

func TestTokenizeTooManyTokensErrors(t *testing.T) {
	_, err := Tokenize("a b c d e f g h i")
	require.Error(t, err)
}

func TestParseListLocalsDefaultsLevelToOne(t *testing.T) {
	cmd, err := Parse([]string{"ll"})
	require.NoError(t, err)
	require.Equal(t, "ll 1", cmd.Wire)
}

func TestParseWatchAddressedForm(t *testing.T) {
	cmd, err := Parse([]string{"w", "1", "l", "x|n3", "r"})
	require.NoError(t, err)
	require.Equal(t, "w 1 l x|n3 r", cmd.Wire)
	require.True(t, cmd.Kind.Resuming() == false)
}

func TestParseWatchCachedForm(t *testing.T) {
	cmd, err := Parse([]string{"w"})
	require.NoError(t, err)
	require.Equal(t, "w", cmd.Wire)
}

func TestParseRejectsBadFrameLevel(t *testing.T) {
	_, err := Parse([]string{"ll", "abc"})
	require.Error(t, err)
}

func TestParseRejectsZeroFrameLevel(t *testing.T) {
	for _, tokens := range [][]string{
		{"ll", "0"},
		{"lu", "0"},
		{"lg", "00"},
		{"w", "0", "l", "x"},
	} {
		_, err := Parse(tokens)
		require.Error(t, err, "tokens %v must not reach the wire", tokens)
	}
}

func TestParseMemoryValidatesHexAndLength(t *testing.T) {
	cmd, err := Parse([]string{"m", "0x1a2b", "16"})
	require.NoError(t, err)
	require.Equal(t, "m 0x1a2b 16", cmd.Wire)

	_, err = Parse([]string{"m", "nothex", "16"})
	require.Error(t, err)
}

func TestParseBreakpointFileCommands(t *testing.T) {
	cmd, err := Parse([]string{"be", "bps.yaml"})
	require.NoError(t, err)
	require.Equal(t, BpExport, cmd.Kind)
	require.Equal(t, "bps.yaml", cmd.File)
	require.Empty(t, cmd.Wire)

	cmd, err = Parse([]string{"bi", "bps.yaml"})
	require.NoError(t, err)
	require.Equal(t, BpImport, cmd.Kind)

	_, err = Parse([]string{"be"})
	require.Error(t, err)
}

func TestClientWaitForEventParsesBreak(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := proto.NewConn(server)
	cl := NewClient(proto.NewConn(client))

	go func() {
		require.NoError(t, sc.WriteBreak("foo.lua", 7))
	}()
	ev, err := cl.WaitForEvent()
	require.NoError(t, err)
	require.False(t, ev.Quit)
	require.Equal(t, "foo.lua", ev.Path)
	require.Equal(t, 7, ev.Line)
}

func TestClientDoListLocalsFramesOnIdle(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := proto.NewConn(server)
	cl := NewClient(proto.NewConn(client))

	go func() {
		_, rerr := sc.ReadCommandLine()
		require.NoError(t, rerr)
		require.NoError(t, sc.BeginOK())
		fw := proto.NewFrameWriter(sc)
		require.NoError(t, fw.S("x"))
		require.NoError(t, fw.Value(vmvalue.Int(42)))
		require.NoError(t, fw.Flush())
	}()

	reply, err := cl.Do(Command{Kind: ListLocals, Wire: "ll 1"})
	require.NoError(t, err)
	require.Len(t, reply.Named, 1)
	require.Equal(t, "x", reply.Named[0].Name)
	require.Equal(t, "42", reply.Named[0].Value.Number)
}

func TestClientDoErrorReply(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := proto.NewConn(server)
	cl := NewClient(proto.NewConn(client))

	go func() {
		_, rerr := sc.ReadCommandLine()
		require.NoError(t, rerr)
		require.NoError(t, sc.WriteError("Variable is not found!"))
	}()

	reply, err := cl.Do(Command{Kind: Watch, Wire: "w 1 l missing"})
	require.NoError(t, err)
	require.Equal(t, "Variable is not found!", reply.Err)
}
