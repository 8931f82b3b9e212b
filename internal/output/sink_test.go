package output_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rnrgo/internal/output"
	"github.com/vk/rnrgo/internal/testutil"
)

func TestPrefixSink_LinesCarryTheirMemberLabel(t *testing.T) {
	var buf testutil.SafeBuffer
	sink := output.NewPrefixSink(&buf, &buf)

	m := sink.Member("api")
	fmt.Fprintln(m.Stdout(), "hello")
	fmt.Fprintln(m.Stdout(), "world")
	require.NoError(t, m.Close())

	for _, line := range nonEmptyLines(buf.String()) {
		assert.Contains(t, line, "api |")
	}
}

func TestPrefixSink_NoLineMixesTwoMembers(t *testing.T) {
	var buf testutil.SafeBuffer
	sink := output.NewPrefixSink(&buf, &buf)

	var wg sync.WaitGroup
	for _, label := range []string{"one", "two", "three"} {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			m := sink.Member(label)
			for i := 0; i < 50; i++ {
				// Write in fragments to provoke interleaving.
				fmt.Fprintf(m.Stdout(), "%s-", label)
				fmt.Fprintf(m.Stdout(), "payload\n")
			}
			assert.NoError(t, m.Close())
		}(label)
	}
	wg.Wait()

	lines := nonEmptyLines(buf.String())
	assert.Len(t, lines, 150)
	for _, line := range lines {
		count := 0
		for _, label := range []string{"one-payload", "two-payload", "three-payload"} {
			if strings.Contains(line, label) {
				count++
			}
		}
		assert.Equal(t, 1, count, "line mixes member payloads: %q", line)
	}
}

func TestPrefixSink_CloseFlushesPartialLine(t *testing.T) {
	var buf testutil.SafeBuffer
	sink := output.NewPrefixSink(&buf, &buf)

	m := sink.Member("api")
	fmt.Fprint(m.Stdout(), "no trailing newline")
	assert.Empty(t, buf.String(), "partial lines stay buffered")
	require.NoError(t, m.Close())
	assert.Contains(t, buf.String(), "no trailing newline")
}

func TestBufferSink_FlushesWholeMemberAtomically(t *testing.T) {
	var buf testutil.SafeBuffer
	sink := output.NewBufferSink(&buf, &buf)

	first := sink.Member("first")
	second := sink.Member("second")
	fmt.Fprintln(first.Stdout(), "f1")
	fmt.Fprintln(second.Stdout(), "s1")
	fmt.Fprintln(first.Stdout(), "f2")

	assert.Empty(t, buf.String(), "nothing flushes before Close")
	require.NoError(t, first.Close())
	assert.Equal(t, "f1\nf2\n", buf.String())
	require.NoError(t, second.Close())
	assert.Equal(t, "f1\nf2\ns1\n", buf.String())
}

func TestStreamSink_PassesThrough(t *testing.T) {
	var buf testutil.SafeBuffer
	sink := output.NewStreamSink(&buf, &buf)

	m := sink.Member("any")
	fmt.Fprintln(m.Stdout(), "direct")
	require.NoError(t, m.Close())
	assert.Equal(t, "direct\n", buf.String())
}

func TestNewSink_SelectsByMode(t *testing.T) {
	var buf testutil.SafeBuffer
	assert.IsType(t, &output.StreamSink{}, output.NewSink(output.ModeStream, &buf, &buf))
	assert.IsType(t, &output.BufferSink{}, output.NewSink(output.ModeBuffer, &buf, &buf))
	assert.IsType(t, &output.PrefixSink{}, output.NewSink(output.ModePrefix, &buf, &buf))
	assert.IsType(t, &output.PrefixSink{}, output.NewSink("bogus", &buf, &buf))
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
