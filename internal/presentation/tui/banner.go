package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the switchboard banner, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`   ____          _ _       _     _                         _ `, "#38bdf8"},
		{`  / ___|_      _(_) |_ ___| |__ | |__   ___   __ _ _ __ __| |`, "#22d3ee"},
		{`  \___ \ \ /\ / / | __/ __| '_ \| '_ \ / _ \ / _' | '__/ _' |`, "#2dd4bf"},
		{`   ___) \ V  V /| | || (__| | | | |_) | (_) | (_| | | | (_| |`, "#34d399"},
		{`  |____/ \_/\_/ |_|\__\___|_| |_|_.__/ \___/ \__,_|_|  \__,_|`, "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Styled colors a system message (hints, call status) for the console.
func Styled(w io.Writer, msg string) string {
	out := termenv.NewOutput(w)
	return out.String(msg).Faint().String()
}
