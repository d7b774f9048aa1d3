package sfen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Square is a board coordinate. The zero Square stands for the komadai.
type Square struct {
	File int
	Rank int
}

func (s Square) OnBoard() bool {
	return s.File >= 1 && s.File <= Files && s.Rank >= 1 && s.Rank <= Ranks
}

func (s Square) IsHand() bool {
	return s.File == 0 && s.Rank == 0
}

// Direction is a disambiguation letter of a move annotation.
type Direction rune

const (
	Right    Direction = 'R'
	Left     Direction = 'L'
	Up       Direction = 'A'
	Upward   Direction = 'U'
	Pull     Direction = 'H'
	Down     Direction = 'S'
	Downward Direction = 'D'
	Sideways Direction = 'Y'
	Straight Direction = 'C'
)

func (d Direction) Word() (string, error) {
	switch d {
	case Right:
		return "右", nil
	case Left:
		return "左", nil
	case Up, Upward:
		return "上", nil
	case Pull:
		return "引", nil
	case Down, Downward:
		return "下", nil
	case Sideways:
		return "寄", nil
	case Straight:
		return "直", nil
	default:
		return "", fmt.Errorf("%c is not supported in LastMove", rune(d))
	}
}

type csaPiece struct {
	kind     PieceKind
	promoted bool
}

var csaPieces = map[string]csaPiece{
	"FU": {kind: Pawn},
	"KY": {kind: Lance},
	"KE": {kind: Knight},
	"GI": {kind: Silver},
	"KI": {kind: Gold},
	"KA": {kind: Bishop},
	"HI": {kind: Rook},
	"OU": {kind: King},
	"GY": {kind: King},
	"TO": {kind: Pawn, promoted: true},
	"NY": {kind: Lance, promoted: true},
	"NE": {kind: Knight, promoted: true},
	"NG": {kind: Silver, promoted: true},
	"UM": {kind: Bishop, promoted: true},
	"RY": {kind: Rook, promoted: true},
}

// PieceFromCSA resolves a two-letter CSA piece code such as FU or RY.
func PieceFromCSA(code string) (Piece, bool) {
	def, ok := csaPieces[strings.ToUpper(code)]
	if !ok {
		return Piece{}, false
	}
	promotion := Unspecified
	if def.promoted {
		promotion = Promoted
	}
	return Piece{Kind: def.kind, Promotion: promotion, Side: First}, true
}

// LastMove is the move that produced a position, used for highlighting and
// for the 手数 line of a text board.
type LastMove struct {
	From       Square
	To         Square
	Piece      Piece
	Annotation Promotion
	Directions []Direction
}

// NoMove is the inert LastMove: nothing to highlight or describe.
func NoMove() LastMove {
	return LastMove{}
}

var lastMoveRe = regexp.MustCompile(`^(\d\d)(\d\d)([A-Za-z]{2})([PN]?)([A-Za-z]*)$`)

// ParseLastMove reads annotations like 7776FU, 2822UM, 0055KA or 4131GIL.
func ParseLastMove(text string) (LastMove, error) {
	match := lastMoveRe.FindStringSubmatch(text)
	if match == nil {
		return LastMove{}, fmt.Errorf("%q is invalid lastmove", text)
	}
	lm := LastMove{
		From: parseSquare(match[1]),
		To:   parseSquare(match[2]),
	}
	piece, ok := PieceFromCSA(match[3])
	if !ok {
		return LastMove{}, fmt.Errorf("%q is invalid lastmove about koma", text)
	}
	lm.Piece = piece
	switch match[4] {
	case "P":
		lm.Annotation = Promoted
	case "N":
		lm.Annotation = NotPromoted
	}
	for _, r := range match[5] {
		d := Direction(r)
		if _, err := d.Word(); err != nil {
			return LastMove{}, fmt.Errorf("%q: %w", text, err)
		}
		lm.Directions = append(lm.Directions, d)
	}
	if lm.IsDrop() && (lm.Annotation != Unspecified || len(lm.Directions) > 0) {
		return LastMove{}, fmt.Errorf("%q: a drop takes neither promotion nor direction", text)
	}
	return lm, nil
}

// String writes lm back in the annotation form ParseLastMove reads. An
// inert move is the empty string.
func (lm LastMove) String() string {
	if !lm.IsOK() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d%d%d%d%s", lm.From.File, lm.From.Rank, lm.To.File, lm.To.Rank, csaCode(lm.Piece))
	switch lm.Annotation {
	case Promoted:
		b.WriteByte('P')
	case NotPromoted:
		b.WriteByte('N')
	}
	for _, d := range lm.Directions {
		b.WriteRune(rune(d))
	}
	return b.String()
}

func csaCode(p Piece) string {
	promoted := p.Promotion == Promoted
	if p.Kind == King {
		return "OU"
	}
	for code, def := range csaPieces {
		if def.kind == p.Kind && def.promoted == promoted {
			return code
		}
	}
	return "??"
}

func parseSquare(digits string) Square {
	n, _ := strconv.Atoi(digits)
	return Square{File: n / 10, Rank: n % 10}
}

// IsOK reports whether the destination is a real square.
func (lm LastMove) IsOK() bool {
	return lm.To.File > 0 && lm.To.Rank > 0
}

func (lm LastMove) IsDrop() bool {
	return lm.From.IsHand()
}

// Target returns the square to highlight, if any.
func (lm LastMove) Target() (Square, bool) {
	if !lm.IsOK() {
		return Square{}, false
	}
	return lm.To, true
}

var rankKanji = [Ranks]string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}

// FileNumeral is the full-width digit for a file, e.g. ７.
func FileNumeral(file int) string {
	return width.Widen.String(strconv.Itoa(file))
}

// RankNumeral is the kanji for a rank, e.g. 六.
func RankNumeral(rank int) string {
	if rank < 1 || rank > Ranks {
		return ""
	}
	return rankKanji[rank-1]
}

const invalidLastMove = "invalid last move."

// Describe writes the move in kifu style, e.g. ７六歩まで or ５五角打まで.
// An inert move describes as the empty string.
func (lm LastMove) Describe() (string, error) {
	if !lm.IsOK() {
		return "", nil
	}
	if !lm.To.OnBoard() {
		return "", fmt.Errorf("%s destination %d%d is off the board", invalidLastMove, lm.To.File, lm.To.Rank)
	}
	var b strings.Builder
	b.WriteString(FileNumeral(lm.To.File))
	b.WriteString(RankNumeral(lm.To.Rank))
	k, ok := lm.Piece.Kanji()
	if !ok {
		return "", fmt.Errorf("%s no piece", invalidLastMove)
	}
	b.WriteString(k)
	if lm.IsDrop() {
		if len(lm.Directions) > 0 || lm.Annotation != Unspecified {
			return "", fmt.Errorf("%s a drop takes neither promotion nor direction", invalidLastMove)
		}
		b.WriteString("打")
	} else {
		for _, d := range lm.Directions {
			word, err := d.Word()
			if err != nil {
				return "", err
			}
			b.WriteString(word)
		}
		b.WriteString(lm.Annotation.String())
	}
	b.WriteString("まで")
	return b.String(), nil
}
