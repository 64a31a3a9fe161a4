package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/codex-reversi/internal/app"
	"github.com/jaminalder/codex-reversi/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"discClass": func(c domain.Color) string {
			switch c {
			case domain.Black:
				return "disc black"
			case domain.White:
				return "disc white"
			default:
				return ""
			}
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Reversi</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.row{display:flex}.row form{margin:0}
.row button{width:3em;height:3em;background:#2e7d32;border:1px solid #1b5e20}
.disc{display:inline-block;width:2em;height:2em;border-radius:50%}
.disc.black{background:#111}.disc.white{background:#eee}
button.legal{outline:2px dashed #ffeb3b}
</style>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Reversi</h1><form action="/game" method="post"><button>Create</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.Game.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .Board}}</div>
</div>`))
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">
    {{if .Over}}Game over: {{if .Winner}}{{.Winner}} wins{{else}}draw{{end}}
    {{else}}{{.Turn}} to move{{if .Passed}} ({{.Passed}} passed){{end}}{{end}}
    <span class="score">black {{.Black}} / white {{.White}}</span>
    {{if .Seat}}<span class="seat">you are {{.Seat}}</span>{{end}}
  </div>
  {{$id := .ID}}
  {{range .Rows}}
  <div class="row">
    {{range .}}
      <form hx-post="/game/{{$id}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{.Row}}">
        <input type="hidden" name="c" value="{{.Col}}">
        <button type="submit"{{if .Legal}} class="legal"{{end}} title="{{.Name}}"><span class="{{discClass .Color}}"></span></button>
      </form>
    {{end}}
  </div>
  {{end}}
</div>
`

type cellView struct {
	Row, Col int
	Name     string
	Color    domain.Color
	Legal    bool
}

type boardView struct {
	ID     string
	Rows   [domain.Size][domain.Size]cellView
	Turn   domain.Color
	Passed domain.Color
	Winner domain.Color
	Over   bool
	Black  int
	White  int
	Seat   domain.Color
	Error  string
}

func newBoardView(gs app.GameState, playerID, errMsg string) boardView {
	g := gs.Game
	v := boardView{
		ID:     gs.ID,
		Turn:   g.Turn,
		Passed: g.Passed,
		Winner: g.Winner,
		Over:   g.Over,
		Seat:   gs.Seat(playerID),
		Error:  errMsg,
	}
	v.Black, v.White = g.Score()
	grid := g.Board.Grid()
	for r := range grid {
		for c, color := range grid[r] {
			p := domain.Position{Row: r, Col: c}
			v.Rows[r][c] = cellView{
				Row:   r,
				Col:   c,
				Name:  p.String(),
				Color: color,
				Legal: !g.Over && g.Board.IsLegalMove(p, g.Turn),
			}
		}
	}
	return v
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := app.NewPlayerID()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
