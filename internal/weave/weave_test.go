package weave

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/idmkit/internal/checksum"
	"github.com/starford/idmkit/internal/idm"
	"github.com/starford/idmkit/internal/outline"
)

func doc(s string) string {
	return strings.TrimPrefix(dedent.Dedent(s), "\n")
}

func parse(t *testing.T, s string) *outline.Outline {
	t.Helper()
	o, err := idm.Parse(doc(s))
	require.NoError(t, err)
	return o
}

func opts() Options {
	return Options{
		Style:  idm.DefaultStyle,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]bool{
		">hello.sh":     true,
		">sub/dir/x.py": true,
		">-":            true,
		"  >padded.sh ": true,
		">../escape":    false,
		">/etc/passwd":  false,
		">two words":    false,
		">":             false,
		"hello.sh":      false,
	}
	for head, want := range cases {
		_, ok := FileName(head)
		assert.Equal(t, want, ok, head)
	}
}

func TestRun_InsertsOutputAndRecordsHash(t *testing.T) {
	o := parse(t, `
		Intro
		>hello.sh
		  #!/bin/sh
		  echo hello
		  echo world
		==
		Outro
	`)

	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Equal(t, []string{"hello.sh"}, res.Ran)

	hash := checksum.Fingerprint("hello.sh", "#!/bin/sh\necho hello\necho world\n")
	want := doc(`
		Intro
		>hello.sh
		  :input ` + hash + `
		  #!/bin/sh
		  echo hello
		  echo world
		==
		  hello
		  world
		Outro
	`)
	assert.Equal(t, want, idm.Serialize(o, idm.DefaultStyle))

	// Unchanged scripts are not run again.
	res, err = Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Empty(t, res.Ran)
	assert.Equal(t, []string{"hello.sh"}, res.Skipped)
	assert.Equal(t, want, idm.Serialize(o, idm.DefaultStyle))
}

func TestRun_ForceAndChangedScripts(t *testing.T) {
	o := parse(t, `
		>n.sh
		  :input stale
		  #!/bin/sh
		  echo 1
		==
		  old
	`)
	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Equal(t, []string{"n.sh"}, res.Ran)
	assert.Equal(t, "1", o.Sections[1].Body.Sections[0].Head)

	o.Sections[1].Body.Sections[0].Head = "edited"
	op := opts()
	op.Force = true
	res, err = Run(context.Background(), o, op)
	require.NoError(t, err)
	assert.Equal(t, []string{"n.sh"}, res.Ran)
	assert.Equal(t, "1", o.Sections[1].Body.Sections[0].Head)
}

func TestRun_ScriptsShareWorkDir(t *testing.T) {
	o := parse(t, `
		>data.txt
		  a
		  b
		>count.sh
		  #!/bin/sh
		  wc -l < data.txt | tr -d ' '
		==
	`)
	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, []string{"count.sh"}, res.Ran)
	assert.Equal(t, "2", o.Sections[2].Body.Sections[0].Head)
}

func TestRun_NestedAndNonRunnable(t *testing.T) {
	o := parse(t, `
		Chapter
		  >inner.sh
		    #!/bin/sh
		    echo nested
		  ==
		>notes.txt
		  just text
		==
	`)
	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Equal(t, []string{"inner.sh"}, res.Ran)
	assert.Equal(t, []string{"notes.txt"}, res.Skipped)
	assert.Equal(t, "nested", o.Sections[0].Body.Sections[1].Body.Sections[0].Head)
	assert.True(t, o.Sections[2].Body.IsEmpty())
}

func TestRun_ScriptBodiesAreNotSearched(t *testing.T) {
	o := parse(t, `
		>outer.txt
		  >inner.sh
		    #!/bin/sh
		    echo no
		  ==
	`)
	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Empty(t, res.Ran)
}

func TestRun_FailureLeavesOutlineUntouched(t *testing.T) {
	src := `
		>fail.sh
		  #!/bin/sh
		  echo oops >&2
		  exit 3
		==
	`
	o := parse(t, src)
	_, err := Run(context.Background(), o, opts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
	assert.Equal(t, doc(src), idm.Serialize(o, idm.DefaultStyle))
}

func TestRun_Timeout(t *testing.T) {
	o := parse(t, `
		>slow.sh
		  #!/bin/sh
		  sleep 3
		==
	`)
	op := opts()
	op.Timeout = 100 * time.Millisecond
	_, err := Run(context.Background(), o, op)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRun_NoScripts(t *testing.T) {
	o := parse(t, "plain\n  text\n")
	res, err := Run(context.Background(), o, opts())
	require.NoError(t, err)
	assert.Zero(t, res.Found)
}
