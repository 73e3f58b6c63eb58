package analysis

// defaultVariants maps lower-cased spelling variants to a canonical competitor
// name. Extend it through the run profile's competitor_variants rather than here.
var defaultVariants = map[string]string{
	"dobinsons":            "Dobinsons",
	"dobinsons 4x4":        "Dobinsons",
	"dobinsons suspension": "Dobinsons",

	"old man emu":            "Old Man Emu",
	"ome":                    "Old Man Emu",
	"old man emu suspension": "Old Man Emu",

	"pedders":                     "Pedders Suspension",
	"pedders suspension":          "Pedders Suspension",
	"pedders suspension & brakes": "Pedders Suspension",

	"tough dog":            "Tough Dog",
	"tough dog suspension": "Tough Dog",

	"lovells":            "Lovells Suspension",
	"lovells suspension": "Lovells Suspension",

	"bilstein": "Bilstein",

	"fox":        "Fox",
	"fox shocks": "Fox",

	"rough country": "Rough Country",
}
