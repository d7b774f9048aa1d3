package sfen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	pos := Parse("4k4/9/9/9/9/9/9/9/4K4 b G2p 1")
	got, err := Dump(pos, NoMove(), "sente", "gote", "詰将棋")
	require.NoError(t, err)

	blank := strings.Repeat(" ・", 9)
	row := func(center string) string {
		return strings.Repeat(" ・", 4) + center + strings.Repeat(" ・", 4)
	}
	want := strings.Join([]string{
		"後手：gote",
		"後手の持駒：歩二",
		"  ９ ８ ７ ６ ５ ４ ３ ２ １",
		"+---------------------------+",
		"|" + row("v玉") + "|一",
		"|" + blank + "|二",
		"|" + blank + "|三",
		"|" + blank + "|四",
		"|" + blank + "|五",
		"|" + blank + "|六",
		"|" + blank + "|七",
		"|" + blank + "|八",
		"|" + row(" 玉") + "|九",
		"+---------------------------+",
		"先手の持駒：金",
		"先手：sente",
		"手数＝1　先手の番です。",
		"* 詰将棋",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestDumpWithLastMove(t *testing.T) {
	lm, err := ParseLastMove("7776FU")
	require.NoError(t, err)
	got, err := Dump(Parse("lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2"), lm, "", "", "")
	require.NoError(t, err)
	assert.Contains(t, got, "後手の持駒：なし\n")
	assert.Contains(t, got, "| ・ ・ 歩 ・ ・ ・ ・ ・ ・|六\n")
	assert.True(t, strings.HasSuffix(got, "手数＝2　７六歩まで\n* "), got)
}

func TestDumpErrors(t *testing.T) {
	_, err := Dump(Parse("9/9/9 b - 1"), NoMove(), "", "", "")
	assert.Error(t, err)
	_, err = Dump(Parse("9/9/9/9/9/9/9/9/9 b 2? 1"), NoMove(), "", "", "")
	assert.Error(t, err)
	_, err = Dump(Parse("9/9/9/9/9/9/9/9/9 z - 1"), NoMove(), "", "", "")
	assert.Error(t, err)
}
