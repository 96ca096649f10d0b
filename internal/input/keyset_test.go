package input

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		switch e.Kind {
		case EventKeyDown:
			out[i] = "+" + e.Key
		case EventKeyUp:
			out[i] = "-" + e.Key
		case EventButtonDown:
			out[i] = "+" + e.Button.String()
		case EventButtonUp:
			out[i] = "-" + e.Button.String()
		default:
			out[i] = string(e.Kind)
		}
	}
	return out
}

func TestKeySet_SyncSendsOnlyEdges(t *testing.T) {
	rec := NewRecorder(nil)
	ks := NewKeySet(rec)

	require.NoError(t, ks.Sync("w", "a"))
	require.NoError(t, ks.Sync("w", "a"))
	require.NoError(t, ks.Sync("w", "d"))
	require.NoError(t, ks.Sync())

	assert.Equal(t, []string{"+w", "+a", "-a", "+d", "-d", "-w"}, kinds(rec.Events()))
	assert.Empty(t, ks.Pressed())
	assert.Empty(t, rec.HeldKeys())
}

func TestKeySet_UnknownKey(t *testing.T) {
	rec := NewRecorder(nil)
	ks := NewKeySet(rec)
	require.NoError(t, ks.Sync("w"))

	err := ks.Sync("w", "f13")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, []string{"w"}, ks.Pressed(), "a rejected sync leaves state alone")
	assert.Len(t, rec.Events(), 1)
}

func TestKeySet_Tap(t *testing.T) {
	rec := NewRecorder(nil)
	ks := NewKeySet(rec)

	require.NoError(t, ks.Tap("enter"))
	assert.Equal(t, []string{"+enter", "-enter"}, kinds(rec.Events()))
	assert.False(t, ks.IsPressed("enter"))

	rec.Clear()
	require.NoError(t, ks.Press("space"))
	require.NoError(t, ks.Tap("space"))
	assert.Equal(t, []string{"+space", "-space", "+space", "-space"}, kinds(rec.Events()))
	assert.False(t, ks.IsPressed("space"))
}

func TestKeySet_ReleaseAll(t *testing.T) {
	rec := NewRecorder(nil)
	ks := NewKeySet(rec)
	require.NoError(t, ks.Sync("up", "f", "space"))

	require.NoError(t, ks.ReleaseAll())
	assert.Empty(t, ks.Pressed())
	assert.Empty(t, rec.HeldKeys())

	// Nothing held, nothing sent.
	rec.Clear()
	require.NoError(t, ks.ReleaseAll())
	assert.Empty(t, rec.Events())
}

// flakyKeyboard fails KeyDown for one key.
type flakyKeyboard struct {
	*Recorder
	fail string
}

func (k *flakyKeyboard) KeyDown(key string) error {
	if key == k.fail {
		return errors.New("device gone")
	}
	return k.Recorder.KeyDown(key)
}

func TestKeySet_BackendErrorKeepsState(t *testing.T) {
	kb := &flakyKeyboard{Recorder: NewRecorder(nil), fail: "d"}
	ks := NewKeySet(kb)

	err := ks.Sync("w", "d")
	assert.Error(t, err)
	assert.True(t, ks.IsPressed("w"))
	assert.False(t, ks.IsPressed("d"), "failed press is not recorded as held")
}

func TestButtonSet(t *testing.T) {
	rec := NewRecorder(nil)
	bs := NewButtonSet(rec)

	require.NoError(t, bs.Sync(ButtonLeft))
	require.NoError(t, bs.Sync(ButtonLeft))
	assert.True(t, rec.HeldButton(ButtonLeft))

	require.NoError(t, bs.Click(ButtonLeft))
	assert.False(t, bs.IsPressed(ButtonLeft))

	require.NoError(t, bs.Sync(ButtonRight, ButtonMiddle))
	assert.Equal(t, []Button{ButtonRight, ButtonMiddle}, bs.Pressed())
	require.NoError(t, bs.ReleaseAll())

	assert.Equal(t, []string{
		"+left",
		"-left", "+left", "-left",
		"+right", "+middle",
		"-right", "-middle",
	}, kinds(rec.Events()))
}
