package sfen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned by every accessor of a Position built from
// a record with fewer than four fields.
var ErrInvalidPosition = errors.New("sfen needs board, turn, hand and move number")

// ParseError names the field being read and the fragment that broke it.
type ParseError struct {
	Field    string
	Fragment string
	Input    string
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Input == "" || e.Input == e.Fragment {
		return fmt.Sprintf("%s %q: %s", e.Field, e.Fragment, e.Msg)
	}
	return fmt.Sprintf("%s %q in [%s]: %s", e.Field, e.Fragment, e.Input, e.Msg)
}

// Position is one SFEN record split into its fields. The board and hands are
// expanded on demand so a malformed field only fails the call that reads it.
type Position struct {
	board string
	turn  string
	hand  string
	moves string
	valid bool
}

// Parse splits text on single spaces. Fewer than four fields gives an
// invalid Position rather than an error.
func Parse(text string) Position {
	fields := strings.Split(text, " ")
	if len(fields) < 4 {
		return Position{}
	}
	return Position{
		board: fields[0],
		turn:  fields[1],
		hand:  fields[2],
		moves: fields[3],
		valid: true,
	}
}

// ParseInput reads a position and an optional last move as given by a
// caller. An invalid position is an error; an unparsable last move is
// passed to warn and dropped.
func ParseInput(text, lastMove string, warn func(error)) (Position, LastMove, error) {
	pos := Parse(text)
	if !pos.Valid() {
		return pos, NoMove(), fmt.Errorf("%q: %w", text, ErrInvalidPosition)
	}
	if lastMove == "" {
		return pos, NoMove(), nil
	}
	lm, err := ParseLastMove(lastMove)
	if err != nil {
		if warn != nil {
			warn(err)
		}
		return pos, NoMove(), nil
	}
	return pos, lm, nil
}

func (p Position) Valid() bool        { return p.valid }
func (p Position) BoardField() string { return p.board }
func (p Position) TurnField() string  { return p.turn }
func (p Position) HandField() string  { return p.hand }

func (p Position) String() string {
	if !p.valid {
		return "invalid"
	}
	return strings.Join([]string{p.board, p.turn, p.hand, p.moves}, " ")
}

// MoveNumber returns the fourth field as an integer.
func (p Position) MoveNumber() (int, error) {
	if !p.valid {
		return 0, ErrInvalidPosition
	}
	n, err := strconv.Atoi(p.moves)
	if err != nil {
		return 0, &ParseError{Field: "move number", Fragment: p.moves, Msg: "is not a number"}
	}
	return n, nil
}

const (
	Files = 9
	Ranks = 9
)

// Board holds ranks 1..9 top to bottom, each read from file 9 to file 1.
type Board [Ranks][Files]Piece

// At returns the piece on (file, rank); off-board squares are empty.
func (b *Board) At(file, rank int) Piece {
	if file < 1 || file > Files || rank < 1 || rank > Ranks {
		return Piece{}
	}
	return b[rank-1][Files-file]
}

// Pieces counts occupied squares.
func (b *Board) Pieces() int {
	n := 0
	for _, rank := range b {
		for _, piece := range rank {
			if !piece.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// Board expands the board field into a 9x9 grid.
func (p Position) Board() (Board, error) {
	var board Board
	if !p.valid {
		return board, ErrInvalidPosition
	}
	ranks := strings.Split(p.board, "/")
	for i, text := range ranks {
		row, err := expandRank(text)
		if err != nil {
			return board, err
		}
		if i >= Ranks {
			continue
		}
		if len(row) != Files {
			return board, &ParseError{Field: "rank", Fragment: text, Input: p.board,
				Msg: fmt.Sprintf("has %d squares, want %d", len(row), Files)}
		}
		copy(board[i][:], row)
	}
	if len(ranks) != Ranks {
		return board, &ParseError{Field: "board", Fragment: p.board,
			Msg: fmt.Sprintf("has %d ranks, want %d", len(ranks), Ranks)}
	}
	return board, nil
}

func expandRank(text string) ([]Piece, error) {
	row := make([]Piece, 0, Files)
	promote := Unspecified
	for _, r := range text {
		switch {
		case r >= '1' && r <= '9':
			for n := int(r - '0'); n > 0; n-- {
				row = append(row, Piece{})
			}
		case KindFromRune(r) != Empty:
			row = append(row, PieceFromRune(r, promote))
			promote = Unspecified
		case r == '+':
			promote = Promoted
		default:
			return nil, &ParseError{Field: "board", Fragment: string(r), Input: text, Msg: "is not allowed"}
		}
	}
	if promote == Promoted {
		return nil, &ParseError{Field: "board", Fragment: "+", Input: text, Msg: "promotes nothing"}
	}
	return row, nil
}

// maxHandCount bounds a digit run in the hand field. Counts above 18 are
// still accepted and rendered in degraded form.
const maxHandCount = 9999

// Hands reads the captured-piece field. A run of digits sets the count of
// the next piece letter (default 1); "-" ends the field.
func (p Position) Hands() (Hands, error) {
	var hands Hands
	if !p.valid {
		return hands, ErrInvalidPosition
	}
	count, digits := 0, 0
	for i, r := range p.hand {
		switch {
		case r >= '0' && r <= '9':
			count = count*10 + int(r-'0')
			digits++
			if count > maxHandCount {
				end := i + 1
				for end < len(p.hand) && p.hand[end] >= '0' && p.hand[end] <= '9' {
					end++
				}
				return hands, &ParseError{Field: "hand", Fragment: p.hand[i+1-digits : end], Input: p.hand, Msg: "count is too large"}
			}
		case r == '-':
			return hands, nil
		case KindFromRune(r) != Empty:
			if count == 0 {
				count = 1
			}
			kind := KindFromRune(r)
			if r >= 'A' && r <= 'Z' {
				hands.First.add(kind, count)
			} else {
				hands.Second.add(kind, count)
			}
			count, digits = 0, 0
		default:
			return hands, &ParseError{Field: "hand", Fragment: string(r), Input: p.hand, Msg: "is not allowed"}
		}
	}
	return hands, nil
}

var turnDescriptions = map[string]string{
	"b":  "先手の番です。",
	"w":  "後手の番です。",
	"fb": "先手の勝ちです。",
	"fw": "後手の勝ちです。",
}

// TurnDescription explains the turn field in a sentence.
func (p Position) TurnDescription() (string, error) {
	if !p.valid {
		return "", ErrInvalidPosition
	}
	return DescribeTurn(p.turn)
}

// DescribeTurn explains a turn code: b, w, fb or fw.
func DescribeTurn(code string) (string, error) {
	if text, ok := turnDescriptions[code]; ok {
		return text, nil
	}
	return "", &ParseError{Field: "turn", Fragment: code, Msg: "is invalid teban expression"}
}
