package llm

// Verdict tokens the relevance prompt contracts the model into. The gate
// checks the affirmative prefix; anything else is treated as negative.
const (
	VerdictAffirmative = "OUI"
	VerdictNegative    = "NON"
)

const relevanceSystemPrompt = `Tu es CheckBot, un fact-checker YouTube.
Ta tâche est d'évaluer si un commentaire mérite un fact checking.
La sortie doit TOUJOURS commencer par "OUI" ou "NON".
Après ce mot, tu peux ajouter une justification concise (max 2 phrases).`

const answerSystemPromptFmt = `Tu es CheckBot, un fact-checker YouTube.
Ta tâche est de debunk ce commentaire, pour la raison suivante : %s
La sortie doit être une réponse claire, factuelle, bien structurée et adaptée au contexte YouTube.`
