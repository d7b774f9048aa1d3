package sfen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// StandardSFEN is the even-game starting position.
const StandardSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var moveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)(?:\s+\(.*)?$`)
var fromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)

// DecodeText returns data as UTF-8, converting from Shift-JIS when it is not
// valid UTF-8 already. A UTF-8 BOM is dropped.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS text")
	}
	return string(decoded), nil
}

// ReadLines reads a text file in UTF-8 or Shift-JIS and splits it into lines.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := DecodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

// Players are the names in a KIF header.
type Players struct {
	First  string
	Second string
}

// Game is a KIF game record: a start position and the moves played from it.
type Game struct {
	Players Players
	Event   string
	initial state
	moves   []kifMove
	foulEnd bool
}

type kifMove struct {
	from       Square
	to         Square
	kind       PieceKind
	drop       bool
	promote    bool
	noPromote  bool
	directions []Direction
}

// LoadKIF reads a KIF file.
func LoadKIF(path string) (*Game, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ParseKIF(lines)
}

// ParseKIF reads a KIF record already split into lines.
func ParseKIF(lines []string) (*Game, error) {
	initial, err := initialState(lines)
	if err != nil {
		return nil, err
	}
	moves, err := parseKIFMoves(lines)
	if err != nil {
		return nil, err
	}
	terminal := terminalWord(lines)
	return &Game{
		Players: Players{First: nameOnly(headerValue(lines, "先手")), Second: nameOnly(headerValue(lines, "後手"))},
		Event:   headerValue(lines, "棋戦"),
		initial: initial,
		moves:   moves,
		foulEnd: terminal == "反則勝ち" || terminal == "反則負け",
	}, nil
}

func (g *Game) MoveCount() int {
	if g == nil {
		return 0
	}
	return len(g.moves)
}

// IsFoulEnd reports a game that ended on an illegal move; the last
// recorded move then leads to a position that should not be shown.
func (g *Game) IsFoulEnd() bool {
	return g != nil && g.foulEnd
}

// FinalPly is the last ply worth showing: the end of the game, or the
// move before a foul.
func (g *Game) FinalPly() int {
	n := g.MoveCount()
	if g.IsFoulEnd() && n > 0 {
		n--
	}
	return n
}

func (g *Game) stateAt(ply int) (state, error) {
	if g == nil {
		return state{}, errors.New("game is nil")
	}
	if ply < 0 || ply > len(g.moves) {
		return state{}, fmt.Errorf("ply out of range: %d", ply)
	}
	st := g.initial.clone()
	for i := 0; i < ply; i++ {
		if _, err := st.apply(g.moves[i]); err != nil {
			return state{}, fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return st, nil
}

// SFENAt returns the position after ply moves.
func (g *Game) SFENAt(ply int) (string, error) {
	st, err := g.stateAt(ply)
	if err != nil {
		return "", err
	}
	return st.sfen(ply + 1), nil
}

// LastMoveAt returns the move that led to the position after ply moves.
// Ply 0 has no such move.
func (g *Game) LastMoveAt(ply int) (LastMove, error) {
	if ply == 0 {
		return NoMove(), nil
	}
	st, err := g.stateAt(ply - 1)
	if err != nil {
		return LastMove{}, err
	}
	return st.apply(g.moves[ply-1])
}

// CollectKIF lists .kif files under root, sorted.
func CollectKIF(root string) ([]string, error) {
	var files []string
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// state is a mutable position used while replaying a game.
type state struct {
	board Board
	hands map[Side]map[PieceKind]int
	turn  Side
}

func newState() state {
	return state{hands: map[Side]map[PieceKind]int{First: {}, Second: {}}, turn: First}
}

func stateFromPosition(pos Position) (state, error) {
	st := newState()
	board, err := pos.Board()
	if err != nil {
		return state{}, err
	}
	st.board = board
	hands, err := pos.Hands()
	if err != nil {
		return state{}, err
	}
	for _, e := range hands.First.Entries() {
		st.hands[First][e.Kind] += e.Count
	}
	for _, e := range hands.Second.Entries() {
		st.hands[Second][e.Kind] += e.Count
	}
	if pos.TurnField() == "w" {
		st.turn = Second
	}
	return st, nil
}

func (s state) clone() state {
	c := newState()
	c.board = s.board
	c.turn = s.turn
	for side, hand := range s.hands {
		for kind, n := range hand {
			c.hands[side][kind] = n
		}
	}
	return c
}

func (s *state) at(sq Square) *Piece {
	return &s.board[sq.Rank-1][Files-sq.File]
}

// apply plays m and returns its annotation.
func (s *state) apply(m kifMove) (LastMove, error) {
	if !m.to.OnBoard() {
		return LastMove{}, fmt.Errorf("invalid destination %d%d", m.to.File, m.to.Rank)
	}
	target := s.at(m.to)
	if m.drop {
		hand := s.hands[s.turn]
		if hand[m.kind] == 0 {
			return LastMove{}, fmt.Errorf("no %s in hand", m.kind)
		}
		if !target.IsEmpty() {
			return LastMove{}, errors.New("drop destination occupied")
		}
		hand[m.kind]--
		*target = Piece{Kind: m.kind, Side: s.turn}
		lm := LastMove{To: m.to, Piece: *target}
		s.toggleTurn()
		return lm, nil
	}

	if !m.from.OnBoard() {
		return LastMove{}, fmt.Errorf("invalid origin %d%d", m.from.File, m.from.Rank)
	}
	source := s.at(m.from)
	moved := *source
	if moved.IsEmpty() {
		return LastMove{}, fmt.Errorf("no piece at %d%d", m.from.File, m.from.Rank)
	}
	if moved.Side != s.turn {
		return LastMove{}, errors.New("moving opponent piece")
	}
	if !target.IsEmpty() && target.Side == s.turn {
		return LastMove{}, errors.New("capturing own piece")
	}
	if m.promote && (moved.Kind == King || moved.Kind == Gold) {
		return LastMove{}, errors.New("cannot promote king or gold")
	}
	if !target.IsEmpty() {
		s.hands[s.turn][target.Kind]++
	}
	lm := LastMove{From: m.from, To: m.to, Piece: moved, Directions: m.directions}
	if m.promote {
		moved.Promotion = Promoted
		lm.Annotation = Promoted
	} else if m.noPromote {
		lm.Annotation = NotPromoted
	}
	*source = Piece{}
	*target = moved
	s.toggleTurn()
	return lm, nil
}

func (s *state) toggleTurn() {
	if s.turn == First {
		s.turn = Second
	} else {
		s.turn = First
	}
}

func (s state) sfen(moveNumber int) string {
	rows := make([]string, 0, Ranks)
	for _, rank := range s.board {
		rows = append(rows, rankSFEN(rank))
	}
	turn := "b"
	if s.turn == Second {
		turn = "w"
	}
	hand := handSFEN(s.hands[First], s.hands[Second])
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), turn, hand, moveNumber)
}

func rankSFEN(rank [Files]Piece) string {
	var b strings.Builder
	empty := 0
	for _, piece := range rank {
		if piece.IsEmpty() {
			empty++
			continue
		}
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
			empty = 0
		}
		if piece.Promotion.IsPromoted() {
			b.WriteByte('+')
		}
		letter := piece.Kind.Letter()
		if piece.Side == Second {
			letter += 'a' - 'A'
		}
		b.WriteRune(letter)
	}
	if empty > 0 {
		b.WriteString(strconv.Itoa(empty))
	}
	return b.String()
}

func handSFEN(first, second map[PieceKind]int) string {
	var b strings.Builder
	write := func(hand map[PieceKind]int, lower bool) {
		for _, kind := range HandKinds {
			n := hand[kind]
			if n == 0 {
				continue
			}
			if n > 1 {
				b.WriteString(strconv.Itoa(n))
			}
			letter := kind.Letter()
			if lower {
				letter += 'a' - 'A'
			}
			b.WriteRune(letter)
		}
	}
	write(first, false)
	write(second, true)
	return b.String()
}

func initialState(lines []string) (state, error) {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "手合割") && strings.Contains(trim, "平手") {
			return stateFromPosition(Parse(StandardSFEN))
		}
	}
	rows := boardRows(lines)
	if len(rows) == 0 {
		return stateFromPosition(Parse(StandardSFEN))
	}
	if len(rows) < Ranks {
		return state{}, fmt.Errorf("board lines must be %d rows, got %d", Ranks, len(rows))
	}
	st := newState()
	for i := 0; i < Ranks; i++ {
		row, err := parseBoardRow(rows[i])
		if err != nil {
			return state{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		st.board[i] = row
	}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		var side Side
		switch {
		case strings.HasPrefix(trim, "先手の持駒"):
			side = First
		case strings.HasPrefix(trim, "後手の持駒"):
			side = Second
		default:
			if strings.HasPrefix(trim, "手番") && strings.Contains(trim, "後手") {
				st.turn = Second
			}
			if strings.HasPrefix(trim, "後手番") {
				st.turn = Second
			}
			continue
		}
		if err := parseHandLine(trim, st.hands[side]); err != nil {
			return state{}, err
		}
	}
	return st, nil
}

func boardRows(lines []string) []string {
	var rows []string
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "|") && strings.Count(trim, "|") >= 2 {
			rows = append(rows, trim)
		}
	}
	return rows
}

func parseBoardRow(line string) ([Files]Piece, error) {
	var row [Files]Piece
	trim := strings.TrimPrefix(line, "|")
	if i := strings.Index(trim, "|"); i >= 0 {
		trim = trim[:i]
	}
	runes := []rune(trim)
	n := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == ' ' || r == '\t' || r == '　' {
			continue
		}
		if n >= Files {
			return row, fmt.Errorf("expected %d cells in %q", Files, line)
		}
		if r == '・' {
			n++
			continue
		}
		side := First
		if r == 'v' {
			side = Second
			i++
			if i >= len(runes) {
				return row, errors.New("dangling gote marker")
			}
			r = runes[i]
		}
		kind, promoted, ok := kindFromKanji(r)
		if !ok {
			return row, fmt.Errorf("unknown piece %c", r)
		}
		p := Piece{Kind: kind, Side: side}
		if promoted {
			p.Promotion = Promoted
		}
		row[n] = p
		n++
	}
	if n != Files {
		return row, fmt.Errorf("expected %d cells, got %d", Files, n)
	}
	return row, nil
}

func kindFromKanji(r rune) (PieceKind, bool, bool) {
	switch r {
	case '歩':
		return Pawn, false, true
	case '香':
		return Lance, false, true
	case '桂':
		return Knight, false, true
	case '銀':
		return Silver, false, true
	case '金':
		return Gold, false, true
	case '角':
		return Bishop, false, true
	case '飛':
		return Rook, false, true
	case '玉', '王':
		return King, false, true
	case 'と':
		return Pawn, true, true
	case '杏':
		return Lance, true, true
	case '圭':
		return Knight, true, true
	case '全':
		return Silver, true, true
	case '馬':
		return Bishop, true, true
	case '龍', '竜':
		return Rook, true, true
	default:
		return Empty, false, false
	}
}

func parseHandLine(line string, hand map[PieceKind]int) error {
	parts := strings.SplitN(line, "：", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(line, ":", 2)
	}
	if len(parts) != 2 {
		return fmt.Errorf("invalid hand line: %s", line)
	}
	text := strings.TrimSpace(parts[1])
	if text == "なし" || text == "" {
		return nil
	}
	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == ' ' || r == '　' {
			i++
			continue
		}
		kind, promoted, ok := kindFromKanji(r)
		if !ok || promoted || kind == King {
			return fmt.Errorf("unknown hand piece %c", r)
		}
		i++
		count := 0
		for i < len(runes) {
			n, ok := kanjiDigit(runes[i])
			if !ok {
				break
			}
			if runes[i] >= '0' && runes[i] <= '9' {
				count = count*10 + n
			} else {
				count += n
			}
			i++
		}
		if count == 0 {
			count = 1
		}
		hand[kind] += count
	}
	return nil
}

func kanjiDigit(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	for i, k := range rankKanji {
		if string(r) == k {
			return i + 1, true
		}
	}
	if r == '十' {
		return 10, true
	}
	return 0, false
}

func parseKIFMoves(lines []string) ([]kifMove, error) {
	var moves []kifMove
	var prev *Square
	for i, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		token := strings.TrimSpace(match[2])
		if isTerminalMove(token) {
			break
		}
		move, err := parseKIFMoveToken(token, prev)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, move)
		dest := move.to
		prev = &dest
	}
	return moves, nil
}

func parseKIFMoveToken(token string, prev *Square) (kifMove, error) {
	work := strings.TrimSpace(token)
	var m kifMove
	if strings.HasPrefix(work, "同") {
		if prev == nil {
			return kifMove{}, errors.New("same-square move without previous destination")
		}
		m.to = *prev
		work = strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　")
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return kifMove{}, fmt.Errorf("invalid move token: %s", token)
		}
		file, ok := fileRune(runes[0])
		if !ok {
			return kifMove{}, fmt.Errorf("invalid destination file in %s", token)
		}
		rank, ok := kanjiDigit(runes[1])
		if !ok || rank > Ranks {
			return kifMove{}, fmt.Errorf("invalid destination rank in %s", token)
		}
		m.to = Square{File: file, Rank: rank}
		work = string(runes[2:])
	}

	if match := fromSquareRe.FindStringSubmatch(work); match != nil {
		m.from = Square{File: int(match[1][0] - '0'), Rank: int(match[2][0] - '0')}
		work = fromSquareRe.ReplaceAllString(work, "")
	}
	if strings.Contains(work, "不成") {
		m.noPromote = true
		work = strings.Replace(work, "不成", "", 1)
	}

	runes := []rune(work)
	if len(runes) == 0 {
		return kifMove{}, fmt.Errorf("missing piece in %s", token)
	}
	promotedPiece := false
	if runes[0] == '成' && len(runes) > 1 {
		promotedPiece = true
		runes = runes[1:]
	}
	kind, wasPromoted, ok := kindFromKanji(runes[0])
	if !ok {
		return kifMove{}, fmt.Errorf("unknown piece in %s", token)
	}
	promotedPiece = promotedPiece || wasPromoted
	m.kind = kind
	for _, r := range runes[1:] {
		switch r {
		case '成':
			m.promote = true
		case '打':
			m.drop = true
		case '右':
			m.directions = append(m.directions, Right)
		case '左':
			m.directions = append(m.directions, Left)
		case '上', '行':
			m.directions = append(m.directions, Up)
		case '引':
			m.directions = append(m.directions, Pull)
		case '下':
			m.directions = append(m.directions, Down)
		case '寄':
			m.directions = append(m.directions, Sideways)
		case '直':
			m.directions = append(m.directions, Straight)
		}
	}
	if m.drop {
		if promotedPiece {
			return kifMove{}, errors.New("cannot drop promoted piece")
		}
		m.from = Square{}
		return m, nil
	}
	if !m.from.OnBoard() {
		// Moves without an origin are drops in some exporters.
		if m.from.IsHand() && !promotedPiece {
			m.drop = true
			return m, nil
		}
		return kifMove{}, errors.New("missing source square")
	}
	return m, nil
}

func fileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

func terminalWord(lines []string) string {
	for _, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if word := strings.TrimSpace(match[2]); isTerminalMove(word) {
			return word
		}
	}
	return ""
}

func headerValue(lines []string, key string) string {
	prefixes := []string{key + "：", key + ":"}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, prefix := range prefixes {
			if strings.HasPrefix(trim, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(trim, prefix))
			}
		}
	}
	return ""
}

var nameRatingRe = regexp.MustCompile(`^(.+?)\((\d+)\)$`)

// nameOnly drops a trailing rating such as "name(1850)".
func nameOnly(raw string) string {
	if match := nameRatingRe.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1])
	}
	return raw
}
