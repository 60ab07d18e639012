package analytics

// Valence lexicon for user-message sentiment, VADER-style: positive values
// lean positive, negative lean negative, magnitudes roughly in [-4, 4].
// The lexicon is static; adapting it is out of scope for the engine.
var sentimentLexicon = map[string]float64{
	"amazing":    3.1,
	"awesome":    3.1,
	"excellent":  3.2,
	"fantastic":  3.3,
	"great":      3.1,
	"perfect":    3.0,
	"wonderful":  2.7,
	"brilliant":  2.8,
	"good":       1.9,
	"nice":       1.8,
	"helpful":    1.9,
	"useful":     1.9,
	"clear":      1.4,
	"fast":       1.3,
	"quick":      1.3,
	"accurate":   1.8,
	"correct":    1.7,
	"right":      1.5,
	"thanks":     1.9,
	"thank":      1.9,
	"appreciate": 2.0,
	"love":       3.2,
	"loved":      2.9,
	"like":       1.5,
	"liked":      1.6,
	"happy":      2.7,
	"glad":       2.1,
	"pleased":    2.0,
	"satisfied":  1.9,
	"impressive": 2.3,
	"impressed":  2.2,
	"solved":     1.8,
	"works":      1.4,
	"worked":     1.4,
	"easy":       1.5,
	"better":     1.7,
	"best":       3.2,
	"win":        2.4,
	"yes":        1.1,
	"cool":       1.7,
	"smart":      1.9,
	"super":      2.2,
	"resolved":   1.7,
	"fixed":      1.5,
	"friendly":   1.9,
	"reliable":   1.8,
	"smooth":     1.5,

	"bad":           -2.5,
	"terrible":      -3.1,
	"horrible":      -3.0,
	"awful":         -2.9,
	"worst":         -3.1,
	"useless":       -2.6,
	"worthless":     -2.8,
	"wrong":         -2.1,
	"incorrect":     -2.0,
	"inaccurate":    -1.9,
	"slow":          -1.4,
	"broken":        -2.2,
	"fail":          -2.5,
	"failed":        -2.3,
	"failure":       -2.4,
	"error":         -1.7,
	"errors":        -1.8,
	"bug":           -1.6,
	"buggy":         -2.0,
	"crash":         -2.3,
	"crashed":       -2.3,
	"hate":          -2.7,
	"hated":         -2.6,
	"angry":         -2.3,
	"furious":       -2.9,
	"annoyed":       -1.9,
	"annoying":      -2.0,
	"frustrated":    -2.4,
	"frustrating":   -2.5,
	"disappointed":  -2.1,
	"disappointing": -2.2,
	"confused":      -1.4,
	"confusing":     -1.6,
	"unclear":       -1.4,
	"unhelpful":     -2.0,
	"stupid":        -2.4,
	"dumb":          -2.3,
	"ridiculous":    -2.2,
	"waste":         -2.2,
	"wasted":        -2.1,
	"problem":       -1.4,
	"problems":      -1.5,
	"issue":         -1.1,
	"issues":        -1.2,
	"nothing":       -1.2,
	"poor":          -2.0,
	"sad":           -2.1,
	"upset":         -2.0,
	"unusable":      -2.6,
	"garbage":       -2.8,
	"nonsense":      -2.2,
	"lies":          -2.4,
	"lying":         -2.5,
	"missing":       -1.4,
	"ignored":       -1.8,
	"stuck":         -1.6,
	"unacceptable":  -2.7,
	"complain":      -1.8,
	"complaint":     -1.8,
	"cancel":        -1.5,
	"refund":        -1.4,
}

// negations invert and dampen the valence of the word they scope over.
var negations = map[string]bool{
	"not":       true,
	"n't":       true,
	"no":        true,
	"never":     true,
	"none":      true,
	"cannot":    true,
	"can't":     true,
	"cant":      true,
	"don't":     true,
	"dont":      true,
	"doesn't":   true,
	"doesnt":    true,
	"didn't":    true,
	"didnt":     true,
	"isn't":     true,
	"isnt":      true,
	"wasn't":    true,
	"wasnt":     true,
	"won't":     true,
	"wont":      true,
	"couldn't":  true,
	"couldnt":   true,
	"wouldn't":  true,
	"wouldnt":   true,
	"shouldn't": true,
	"shouldnt":  true,
	"without":   true,
	"nor":       true,
}

// boosters scale the valence of the following sentiment word.
var boosters = map[string]float64{
	"very":       0.293,
	"really":     0.293,
	"extremely":  0.293,
	"absolutely": 0.293,
	"completely": 0.293,
	"totally":    0.293,
	"so":         0.293,
	"incredibly": 0.293,
	"super":      0.293,
	"quite":      0.2,
	"pretty":     0.2,
	"somewhat":   -0.293,
	"slightly":   -0.293,
	"barely":     -0.293,
	"kinda":      -0.293,
	"marginally": -0.293,
}
