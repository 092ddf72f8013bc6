package normalize

import (
	"sort"
	"strings"
)

// team is one franchise. abbrs and city are generic aliases: they identify a
// team only once the league is known. nicks and the full name are specific.
type team struct {
	name  string
	abbrs []string
	city  string
	nicks []string
}

var nbaTeams = []team{
	{"Atlanta Hawks", []string{"atl"}, "atlanta", []string{"hawks"}},
	{"Boston Celtics", []string{"bos"}, "boston", []string{"celtics"}},
	{"Brooklyn Nets", []string{"bkn", "bk"}, "brooklyn", []string{"nets"}},
	{"Charlotte Hornets", []string{"cha"}, "charlotte", []string{"hornets"}},
	{"Chicago Bulls", []string{"chi"}, "chicago", []string{"bulls"}},
	{"Cleveland Cavaliers", []string{"cle"}, "cleveland", []string{"cavaliers", "cavs"}},
	{"Dallas Mavericks", []string{"dal"}, "dallas", []string{"mavericks", "mavs"}},
	{"Denver Nuggets", []string{"den"}, "denver", []string{"nuggets"}},
	{"Detroit Pistons", []string{"det"}, "detroit", []string{"pistons"}},
	{"Golden State Warriors", []string{"gsw", "gs"}, "golden state", []string{"warriors"}},
	{"Houston Rockets", []string{"hou"}, "houston", []string{"rockets"}},
	{"Indiana Pacers", []string{"ind"}, "indiana", []string{"pacers"}},
	{"Los Angeles Clippers", []string{"lac"}, "los angeles c", []string{"clippers", "la clippers"}},
	{"Los Angeles Lakers", []string{"lal"}, "los angeles l", []string{"lakers", "la lakers"}},
	{"Memphis Grizzlies", []string{"mem"}, "memphis", []string{"grizzlies"}},
	{"Miami Heat", []string{"mia"}, "miami", []string{"heat"}},
	{"Milwaukee Bucks", []string{"mil"}, "milwaukee", []string{"bucks"}},
	{"Minnesota Timberwolves", []string{"min"}, "minnesota", []string{"timberwolves", "wolves"}},
	{"New Orleans Pelicans", []string{"nop"}, "new orleans", []string{"pelicans"}},
	{"New York Knicks", []string{"nyk"}, "new york", []string{"knicks"}},
	{"Oklahoma City Thunder", []string{"okc"}, "oklahoma city", []string{"thunder"}},
	{"Orlando Magic", []string{"orl"}, "orlando", []string{"magic"}},
	{"Philadelphia 76ers", []string{"phi"}, "philadelphia", []string{"76ers", "sixers"}},
	{"Phoenix Suns", []string{"phx"}, "phoenix", []string{"suns"}},
	{"Portland Trail Blazers", []string{"por"}, "portland", []string{"trail blazers", "blazers"}},
	{"Sacramento Kings", []string{"sac"}, "sacramento", []string{"kings"}},
	{"San Antonio Spurs", []string{"sas", "sa"}, "san antonio", []string{"spurs"}},
	{"Toronto Raptors", []string{"tor"}, "toronto", []string{"raptors"}},
	{"Utah Jazz", []string{"uta"}, "utah", []string{"jazz"}},
	{"Washington Wizards", []string{"was", "wsh"}, "washington", []string{"wizards"}},
}

var nflTeams = []team{
	{"Arizona Cardinals", []string{"ari"}, "arizona", []string{"cardinals"}},
	{"Atlanta Falcons", []string{"atl"}, "atlanta", []string{"falcons"}},
	{"Baltimore Ravens", []string{"bal"}, "baltimore", []string{"ravens"}},
	{"Buffalo Bills", []string{"buf"}, "buffalo", []string{"bills"}},
	{"Carolina Panthers", []string{"car"}, "carolina", []string{"panthers"}},
	{"Chicago Bears", []string{"chi"}, "chicago", []string{"bears"}},
	{"Cincinnati Bengals", []string{"cin"}, "cincinnati", []string{"bengals"}},
	{"Cleveland Browns", []string{"cle"}, "cleveland", []string{"browns"}},
	{"Dallas Cowboys", []string{"dal"}, "dallas", []string{"cowboys"}},
	{"Denver Broncos", []string{"den"}, "denver", []string{"broncos"}},
	{"Detroit Lions", []string{"det"}, "detroit", []string{"lions"}},
	{"Green Bay Packers", []string{"gb"}, "green bay", []string{"packers"}},
	{"Houston Texans", []string{"hou"}, "houston", []string{"texans"}},
	{"Indianapolis Colts", []string{"ind"}, "indianapolis", []string{"colts"}},
	{"Jacksonville Jaguars", []string{"jax", "jac"}, "jacksonville", []string{"jaguars"}},
	{"Kansas City Chiefs", []string{"kc"}, "kansas city", []string{"chiefs"}},
	{"Las Vegas Raiders", []string{"lv", "lvr"}, "las vegas", []string{"raiders"}},
	{"Los Angeles Chargers", []string{"lac"}, "los angeles c", []string{"chargers"}},
	{"Los Angeles Rams", []string{"lar"}, "los angeles r", []string{"rams"}},
	{"Miami Dolphins", []string{"mia"}, "miami", []string{"dolphins"}},
	{"Minnesota Vikings", []string{"min"}, "minnesota", []string{"vikings"}},
	{"New England Patriots", []string{"ne"}, "new england", []string{"patriots", "pats"}},
	{"New Orleans Saints", []string{"no"}, "new orleans", []string{"saints"}},
	{"New York Giants", []string{"nyg"}, "new york g", []string{"giants"}},
	{"New York Jets", []string{"nyj"}, "new york j", []string{"jets"}},
	{"Philadelphia Eagles", []string{"phi"}, "philadelphia", []string{"eagles"}},
	{"Pittsburgh Steelers", []string{"pit"}, "pittsburgh", []string{"steelers"}},
	{"San Francisco 49ers", []string{"sf"}, "san francisco", []string{"49ers", "niners"}},
	{"Seattle Seahawks", []string{"sea"}, "seattle", []string{"seahawks"}},
	{"Tampa Bay Buccaneers", []string{"tb"}, "tampa bay", []string{"buccaneers", "bucs"}},
	{"Tennessee Titans", []string{"ten"}, "tennessee", []string{"titans"}},
	{"Washington Commanders", []string{"was", "wsh"}, "washington", []string{"commanders"}},
}

var nhlTeams = []team{
	{"Anaheim Ducks", []string{"ana"}, "anaheim", []string{"ducks"}},
	{"Boston Bruins", []string{"bos"}, "boston", []string{"bruins"}},
	{"Buffalo Sabres", []string{"buf"}, "buffalo", []string{"sabres"}},
	{"Calgary Flames", []string{"cgy"}, "calgary", []string{"flames"}},
	{"Carolina Hurricanes", []string{"car"}, "carolina", []string{"hurricanes", "canes"}},
	{"Chicago Blackhawks", []string{"chi"}, "chicago", []string{"blackhawks"}},
	{"Colorado Avalanche", []string{"col"}, "colorado", []string{"avalanche", "avs"}},
	{"Columbus Blue Jackets", []string{"cbj"}, "columbus", []string{"blue jackets"}},
	{"Dallas Stars", []string{"dal"}, "dallas", []string{"stars"}},
	{"Detroit Red Wings", []string{"det"}, "detroit", []string{"red wings"}},
	{"Edmonton Oilers", []string{"edm"}, "edmonton", []string{"oilers"}},
	{"Florida Panthers", []string{"fla"}, "florida", []string{"panthers"}},
	{"Los Angeles Kings", []string{"lak"}, "los angeles", []string{"kings"}},
	{"Minnesota Wild", []string{"min"}, "minnesota", []string{"wild"}},
	{"Montreal Canadiens", []string{"mtl"}, "montreal", []string{"canadiens", "habs"}},
	{"Nashville Predators", []string{"nsh"}, "nashville", []string{"predators", "preds"}},
	{"New Jersey Devils", []string{"njd", "nj"}, "new jersey", []string{"devils"}},
	{"New York Islanders", []string{"nyi"}, "new york i", []string{"islanders"}},
	{"New York Rangers", []string{"nyr"}, "new york r", []string{"rangers"}},
	{"Ottawa Senators", []string{"ott"}, "ottawa", []string{"senators", "sens"}},
	{"Philadelphia Flyers", []string{"phi"}, "philadelphia", []string{"flyers"}},
	{"Pittsburgh Penguins", []string{"pit"}, "pittsburgh", []string{"penguins", "pens"}},
	{"San Jose Sharks", []string{"sjs", "sj"}, "san jose", []string{"sharks"}},
	{"Seattle Kraken", []string{"sea"}, "seattle", []string{"kraken"}},
	{"St. Louis Blues", []string{"stl"}, "st louis", []string{"blues"}},
	{"Tampa Bay Lightning", []string{"tbl", "tb"}, "tampa bay", []string{"lightning"}},
	{"Toronto Maple Leafs", []string{"tor"}, "toronto", []string{"maple leafs", "leafs"}},
	{"Utah Mammoth", []string{"uta"}, "utah", []string{"mammoth"}},
	{"Vancouver Canucks", []string{"van"}, "vancouver", []string{"canucks"}},
	{"Vegas Golden Knights", []string{"vgk"}, "vegas", []string{"golden knights"}},
	{"Washington Capitals", []string{"wsh", "was"}, "washington", []string{"capitals", "caps"}},
	{"Winnipeg Jets", []string{"wpg"}, "winnipeg", []string{"jets"}},
}

var mlbTeams = []team{
	{"Arizona Diamondbacks", []string{"ari", "az"}, "arizona", []string{"diamondbacks", "dbacks"}},
	{"Athletics", []string{"ath", "oak"}, "oakland", []string{"athletics"}},
	{"Atlanta Braves", []string{"atl"}, "atlanta", []string{"braves"}},
	{"Baltimore Orioles", []string{"bal"}, "baltimore", []string{"orioles"}},
	{"Boston Red Sox", []string{"bos"}, "boston", []string{"red sox"}},
	{"Chicago Cubs", []string{"chc"}, "chicago c", []string{"cubs"}},
	{"Chicago White Sox", []string{"cws", "chw"}, "chicago w", []string{"white sox"}},
	{"Cincinnati Reds", []string{"cin"}, "cincinnati", []string{"reds"}},
	{"Cleveland Guardians", []string{"cle"}, "cleveland", []string{"guardians"}},
	{"Colorado Rockies", []string{"col"}, "colorado", []string{"rockies"}},
	{"Detroit Tigers", []string{"det"}, "detroit", []string{"tigers"}},
	{"Houston Astros", []string{"hou"}, "houston", []string{"astros"}},
	{"Kansas City Royals", []string{"kc", "kcr"}, "kansas city", []string{"royals"}},
	{"Los Angeles Angels", []string{"laa"}, "los angeles a", []string{"angels"}},
	{"Los Angeles Dodgers", []string{"lad"}, "los angeles d", []string{"dodgers"}},
	{"Miami Marlins", []string{"mia"}, "miami", []string{"marlins"}},
	{"Milwaukee Brewers", []string{"mil"}, "milwaukee", []string{"brewers"}},
	{"Minnesota Twins", []string{"min"}, "minnesota", []string{"twins"}},
	{"New York Mets", []string{"nym"}, "new york m", []string{"mets"}},
	{"New York Yankees", []string{"nyy"}, "new york y", []string{"yankees"}},
	{"Philadelphia Phillies", []string{"phi"}, "philadelphia", []string{"phillies"}},
	{"Pittsburgh Pirates", []string{"pit"}, "pittsburgh", []string{"pirates"}},
	{"San Diego Padres", []string{"sd", "sdp"}, "san diego", []string{"padres"}},
	{"San Francisco Giants", []string{"sf", "sfg"}, "san francisco", []string{"giants"}},
	{"Seattle Mariners", []string{"sea"}, "seattle", []string{"mariners"}},
	{"St. Louis Cardinals", []string{"stl"}, "st louis", []string{"cardinals"}},
	{"Tampa Bay Rays", []string{"tb", "tbr"}, "tampa bay", []string{"rays"}},
	{"Texas Rangers", []string{"tex"}, "texas", []string{"rangers"}},
	{"Toronto Blue Jays", []string{"tor"}, "toronto", []string{"blue jays", "jays"}},
	{"Washington Nationals", []string{"wsh", "was"}, "washington", []string{"nationals", "nats"}},
}

// alias is one lookup key into a league table.
type alias struct {
	key      string
	name     string
	abbr     bool
	specific bool
}

// league is a compiled alias table. phrases is sorted longest first so that
// containment checks prefer "golden state warriors" over "warriors".
type league struct {
	sport   string
	exact   map[string]alias
	phrases []alias
}

// leagues are tried in this order when the sport is unknown.
var leagues = []*league{
	compileLeague(SportNBA, nbaTeams),
	compileLeague(SportNFL, nflTeams),
	compileLeague(SportNHL, nhlTeams),
	compileLeague(SportMLB, mlbTeams),
}

func compileLeague(sport string, teams []team) *league {
	l := &league{sport: sport, exact: make(map[string]alias)}
	add := func(key, name string, abbr, specific bool) {
		key = Fold(key)
		if key == "" {
			return
		}
		a := alias{key: key, name: name, abbr: abbr, specific: specific}
		l.exact[key] = a
		if !abbr {
			l.phrases = append(l.phrases, a)
		}
	}
	for _, t := range teams {
		add(t.name, t.name, false, true)
		add(t.city, t.name, false, false)
		for _, n := range t.nicks {
			add(n, t.name, false, true)
		}
		for _, a := range t.abbrs {
			add(a, t.name, true, false)
		}
	}
	sort.SliceStable(l.phrases, func(i, j int) bool {
		return len(l.phrases[i].key) > len(l.phrases[j].key)
	})
	return l
}

func leagueFor(sport string) *league {
	for _, l := range leagues {
		if l.sport == sport {
			return l
		}
	}
	return nil
}

// resolve maps a free-text team reference to its canonical name. Exact alias
// hits win; otherwise the longest non-abbreviation alias contained in ref as
// whole words is used.
func (l *league) resolve(ref string) (alias, bool) {
	f := Fold(ref)
	if f == "" {
		return alias{}, false
	}
	if a, ok := l.exact[f]; ok {
		return a, true
	}
	padded := " " + f + " "
	for _, a := range l.phrases {
		if strings.Contains(padded, " "+a.key+" ") {
			return a, true
		}
	}
	return alias{}, false
}

// ResolveTeam returns the canonical team name for ref within sport. With an
// empty sport every league is tried and the first specific hit wins.
func ResolveTeam(ref, sport string) (name, resolvedSport string, ok bool) {
	if l := leagueFor(sport); l != nil {
		a, ok := l.resolve(ref)
		return a.name, l.sport, ok
	}
	if sport != "" {
		return "", sport, false
	}
	for _, l := range leagues {
		if a, ok := l.resolve(ref); ok && a.specific {
			return a.name, l.sport, true
		}
	}
	return "", "", false
}

// resolvePair resolves both sides of a matchup. When sport is unknown it picks
// the league where both sides resolve, preferring specific aliases.
func resolvePair(left, right, sport string) (a, b, resolvedSport string, ok bool) {
	if l := leagueFor(sport); l != nil {
		x, ok1 := l.resolve(left)
		y, ok2 := l.resolve(right)
		if ok1 && ok2 && x.name != y.name {
			return x.name, y.name, l.sport, true
		}
		return "", "", sport, false
	}
	if sport != "" {
		return "", "", sport, false
	}

	var fallback *league
	var fx, fy alias
	for _, l := range leagues {
		x, ok1 := l.resolve(left)
		y, ok2 := l.resolve(right)
		if !ok1 || !ok2 || x.name == y.name {
			continue
		}
		if x.specific || y.specific {
			return x.name, y.name, l.sport, true
		}
		if fallback == nil {
			fallback, fx, fy = l, x, y
		}
	}
	if fallback != nil {
		// Only generic aliases (cities) matched; the names are usable but the
		// league is a guess, so the sport stays unknown.
		return fx.name, fy.name, "", true
	}
	return "", "", "", false
}

// splitAbbrs splits a concatenated abbreviation run such as "UTACLE" or "NOTB"
// into two teams of the given league.
func splitAbbrs(run, sport string) (string, string, bool) {
	l := leagueFor(sport)
	if l == nil {
		return "", "", false
	}
	run = strings.ToLower(run)
	try := func(i int) (string, string, bool) {
		if i <= 0 || i >= len(run) {
			return "", "", false
		}
		x, ok1 := l.exact[run[:i]]
		y, ok2 := l.exact[run[i:]]
		if ok1 && ok2 && x.abbr && y.abbr && x.name != y.name {
			return x.name, y.name, true
		}
		return "", "", false
	}
	if a, b, ok := try(3); ok {
		return a, b, true
	}
	for i := 2; i <= 4; i++ {
		if a, b, ok := try(i); ok {
			return a, b, true
		}
	}
	return "", "", false
}
