// Package i18n negotiates the interface locale and holds the server-side message catalogue.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const DefaultLocale = "en"

// Supported lists the locales in matcher preference order; the first is the fallback.
var Supported = []language.Tag{language.English, language.Dutch, language.French}

var matcher = language.NewMatcher(Supported)

// Message keys used in API responses.
const (
	MsgSignedIn          = "auth.signed_in"
	MsgSignedOut         = "auth.signed_out"
	MsgSignedUp          = "auth.signed_up"
	MsgInvalidLogin      = "auth.invalid_credentials"
	MsgLoginRequired     = "guard.login_required"
	MsgAccessDenied      = "guard.access_denied"
	MsgMatchGoal         = "match.goal"
	MsgMatchFinished     = "match.finished"
	MsgPreferencesStored = "preferences.saved"
)

var entries = map[string]map[language.Tag]string{
	MsgSignedIn: {
		language.English: "Signed in successfully",
		language.Dutch:   "Succesvol ingelogd",
		language.French:  "Connexion réussie",
	},
	MsgSignedOut: {
		language.English: "Signed out",
		language.Dutch:   "Uitgelogd",
		language.French:  "Déconnecté",
	},
	MsgSignedUp: {
		language.English: "Account created, please sign in",
		language.Dutch:   "Account aangemaakt, log nu in",
		language.French:  "Compte créé, veuillez vous connecter",
	},
	MsgInvalidLogin: {
		language.English: "Invalid email or password",
		language.Dutch:   "Ongeldig e-mailadres of wachtwoord",
		language.French:  "E-mail ou mot de passe invalide",
	},
	MsgLoginRequired: {
		language.English: "Please sign in to continue",
		language.Dutch:   "Log in om verder te gaan",
		language.French:  "Connectez-vous pour continuer",
	},
	MsgAccessDenied: {
		language.English: "You do not have access to this page",
		language.Dutch:   "Je hebt geen toegang tot deze pagina",
		language.French:  "Vous n'avez pas accès à cette page",
	},
	MsgMatchGoal: {
		language.English: "Goal for %s!",
		language.Dutch:   "Doelpunt voor %s!",
		language.French:  "But pour %s !",
	},
	MsgMatchFinished: {
		language.English: "Final score %s %d - %d %s",
		language.Dutch:   "Eindstand %s %d - %d %s",
		language.French:  "Score final %s %d - %d %s",
	},
	MsgPreferencesStored: {
		language.English: "Preferences saved",
		language.Dutch:   "Voorkeuren opgeslagen",
		language.French:  "Préférences enregistrées",
	},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, translations := range entries {
		for tag, text := range translations {
			if err := b.SetString(tag, key, text); err != nil {
				panic(fmt.Sprintf("i18n: %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Valid reports whether locale is one of the supported base languages.
func Valid(locale string) bool {
	for _, t := range Supported {
		if t.String() == locale {
			return true
		}
	}
	return false
}

// Negotiate picks the best supported locale for an Accept-Language header value.
func Negotiate(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return Supported[idx].String()
}

// T formats the message key in the given locale. Unknown keys are returned as is.
func T(locale, key string, args ...interface{}) string {
	tag := language.English
	if Valid(locale) {
		tag = language.Make(locale)
	}
	p := message.NewPrinter(tag, message.Catalog(cat))
	return p.Sprintf(key, args...)
}
