package normalize

// spanishStopwords is the Spanish stopword set applied before stemming.
var spanishStopwords = []string{
	"a", "al", "algo", "algunas", "algunos", "ante", "antes", "como",
	"con", "contra", "cual", "cuando", "de", "del", "desde", "donde",
	"durante", "e", "el", "ella", "ellas", "ellos", "en", "entre",
	"era", "erais", "eran", "eras", "eres", "es", "esa", "esas", "ese",
	"eso", "esos", "esta", "estas", "este", "esto", "estos", "fue",
	"fueron", "ha", "hay", "la", "las", "le", "les", "lo", "los",
	"mas", "me", "mi", "mis", "mucho", "muchos", "muy", "nada", "ni",
	"no", "nos", "nosotros", "o", "os", "otra", "otras", "otro",
	"otros", "para", "pero", "poco", "por", "porque", "que", "quien",
	"quienes", "se", "sin", "sobre", "su", "sus", "tambien", "tanto",
	"te", "tu", "tus", "un", "una", "uno", "unos", "vosotros", "y",
	"ya", "yo",
}
