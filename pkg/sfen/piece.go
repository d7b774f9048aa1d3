package sfen

type PieceKind int

const (
	Empty PieceKind = iota
	Pawn
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
)

// HandKinds lists the kinds that can be held, in the usual komadai order.
var HandKinds = []PieceKind{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// KindFromRune maps an SFEN piece letter of either case to its kind.
// Anything else is Empty.
func KindFromRune(r rune) PieceKind {
	switch r {
	case 'P', 'p':
		return Pawn
	case 'L', 'l':
		return Lance
	case 'N', 'n':
		return Knight
	case 'S', 's':
		return Silver
	case 'G', 'g':
		return Gold
	case 'B', 'b':
		return Bishop
	case 'R', 'r':
		return Rook
	case 'K', 'k':
		return King
	default:
		return Empty
	}
}

// Letter returns the uppercase SFEN letter, or 0 for Empty.
func (k PieceKind) Letter() rune {
	switch k {
	case Pawn:
		return 'P'
	case Lance:
		return 'L'
	case Knight:
		return 'N'
	case Silver:
		return 'S'
	case Gold:
		return 'G'
	case Bishop:
		return 'B'
	case Rook:
		return 'R'
	case King:
		return 'K'
	default:
		return 0
	}
}

// Glyph returns the kanji for kind. Gold and King read the same whether or
// not promoted is set; Empty has no glyph.
func Glyph(kind PieceKind, promoted bool) string {
	switch kind {
	case Pawn:
		if promoted {
			return "と"
		}
		return "歩"
	case Lance:
		if promoted {
			return "杏"
		}
		return "香"
	case Knight:
		if promoted {
			return "圭"
		}
		return "桂"
	case Silver:
		if promoted {
			return "全"
		}
		return "銀"
	case Gold:
		return "金"
	case Bishop:
		if promoted {
			return "馬"
		}
		return "角"
	case Rook:
		if promoted {
			return "龍"
		}
		return "飛"
	case King:
		return "玉"
	default:
		return ""
	}
}

func (k PieceKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Pawn:
		return "pawn"
	case Lance:
		return "lance"
	case Knight:
		return "knight"
	case Silver:
		return "silver"
	case Gold:
		return "gold"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case King:
		return "king"
	default:
		return "unknown"
	}
}

type Promotion int

const (
	Unspecified Promotion = iota
	Promoted
	NotPromoted
)

func (p Promotion) IsPromoted() bool    { return p == Promoted }
func (p Promotion) IsNotPromoted() bool { return p == NotPromoted }

// String returns the annotation word used in move descriptions.
func (p Promotion) String() string {
	switch p {
	case Promoted:
		return "成"
	case NotPromoted:
		return "不成"
	default:
		return ""
	}
}

type Side int

const (
	Neither Side = iota
	First
	Second
)

func (s Side) String() string {
	switch s {
	case First:
		return "sente"
	case Second:
		return "gote"
	default:
		return "none"
	}
}

type Piece struct {
	Kind      PieceKind
	Promotion Promotion
	Side      Side
}

// blankSquare is how an empty square reads in text boards.
const blankSquare = " ・"

// PieceFromRune builds a board piece from an SFEN letter. Uppercase belongs
// to the first side, lowercase to the second; unknown runes give an empty
// square.
func PieceFromRune(r rune, promotion Promotion) Piece {
	kind := KindFromRune(r)
	side := Neither
	if kind != Empty {
		if r >= 'A' && r <= 'Z' {
			side = First
		} else {
			side = Second
		}
	}
	return Piece{Kind: kind, Promotion: promotion, Side: side}
}

func (p Piece) IsEmpty() bool {
	return p.Kind == Empty || p.Side == Neither
}

// Kanji returns the bare glyph; false for an empty square.
func (p Piece) Kanji() (string, bool) {
	if p.IsEmpty() {
		return "", false
	}
	return Glyph(p.Kind, p.Promotion.IsPromoted()), true
}

// String is the text-board form: a side marker (" " or "v") then the glyph.
func (p Piece) String() string {
	k, ok := p.Kanji()
	if !ok {
		return blankSquare
	}
	if p.Side == Second {
		return "v" + k
	}
	return " " + k
}
