package core

import "strings"

// Czech female name endings used by the import heuristic.
var femaleEndings = []string{
	"a", "ie", "ová", "ka", "na", "da", "ta", "la", "ra", "sa", "za", "ce", "še", "ře", "ně", "le",
}

// Male nicknames that end like female names.
var maleExceptions = []string{
	"Nikola", "Míša", "Saša", "Jirka", "Honza", "Láďa", "Péťa", "Víťa", "Míra", "Standa",
	"Franta", "Tonda", "Jenda", "Vašek", "Jára", "Béďa", "Kuba", "Ondra",
}

var femaleNames = []string{
	"Marie", "Jana", "Eva", "Anna", "Hana", "Lenka", "Petra", "Lucie", "Kateřina", "Věra",
	"Alena", "Jaroslava", "Ivana", "Zdeňka", "Michaela", "Martina", "Jitka", "Helena",
	"Ludmila", "Zuzana", "Barbora", "Tereza", "Markéta", "Vlasta", "Božena", "Růžena",
	"Jiřina", "Marta", "Dagmar", "Dana", "Monika", "Simona", "Renata", "Gabriela",
	"Kristýna", "Veronika", "Pavla", "Daniela", "Šárka", "Olga", "Andrea", "Eliška",
}

// DetectGender guesses a member's gender from the first name so bulk
// imports can default the field. It only ever feeds display labels;
// the treasurer can correct it when adding a member by hand.
func DetectGender(firstName string) Gender {
	name := strings.TrimSpace(firstName)
	lower := strings.ToLower(name)

	for _, fn := range femaleNames {
		if strings.EqualFold(fn, name) {
			return GenderFemale
		}
	}
	for _, mn := range maleExceptions {
		if strings.EqualFold(mn, name) {
			return GenderMale
		}
	}
	for _, ending := range femaleEndings {
		if strings.HasSuffix(lower, ending) {
			return GenderFemale
		}
	}
	return GenderMale
}

// MemberLabel returns "člen"/"členka" for export rows.
func MemberLabel(g Gender) string {
	if g == GenderFemale {
		return "členka"
	}
	return "člen"
}
