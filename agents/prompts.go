package agents

const readerPrompt = "You are a precise scientific note-taker. Work ONLY with the TEXT below. " +
	"If an item is not explicitly stated, write 'not reported'. " +
	"Do NOT invent facts. Do NOT include author names, emails, or affiliations.\n\n" +
	"Return notes in EXACTLY this Markdown schema (keep the headings as written):\n\n" +
	"Title: <paper title or 'not reported'>\n" +
	"Objective: <1-2 sentences>\n" +
	"Methods:\n" +
	"- <technique/model>\n" +
	"- <training/eval setup>\n" +
	"- <tooling/frameworks>\n" +
	"Datasets/Corpora: <names or 'not reported'>\n" +
	"Results (key numbers if present):\n" +
	"- <metric: value on dataset>\n" +
	"- <ablation/comparison>\n" +
	"Contributions:\n" +
	"- <main contribution>\n" +
	"- <secondary>\n" +
	"Limitations: <short phrase or 'not reported'>\n" +
	"Applications/Use-cases: <short phrase or 'not reported'>\n" +
	"Notes:\n" +
	"- <any other salient detail>\n\n" +
	"TEXT:\n{{.Content}}"

const summarizerPrompt = "Produce a concise scientific summary (200-300 words) of the paper described in the NOTES. " +
	"Cover, in this order: Objective -> Method (what/how) -> Results (numbers if present; otherwise say 'not reported') " +
	"-> Limitations -> 3-5 Practical Takeaways (bulleted). " +
	"Avoid speculation or citations.\n\n" +
	"NOTES:\n{{.Notes}}"

const criticPrompt = "You are a rigorous scientific reviewer. Judge the SUMMARY only against the NOTES (the ground truth). " +
	"Penalize any claim not supported by NOTES.\n\n" +
	"RUBRIC (0-5 integers):\n" +
	"- Coherence: logical flow, no contradictions.\n" +
	"- Groundedness: claims are supported by NOTES.\n" +
	"- Coverage: objective, method, results, limitations are covered.\n" +
	"- Specificity: salient details included when NOTES provide them.\n\n" +
	"OUTPUT FORMAT (exactly, no extra text):\n" +
	"Coherence: <0-5>\n" +
	"Groundedness: <0-5>\n" +
	"Coverage: <0-5>\n" +
	"Specificity: <0-5>\n" +
	"Improvements:\n" +
	"- <short fix #1>\n" +
	"- <short fix #2>\n" +
	"- <optional fix #3>\n\n" +
	"NOTES:\n{{.Notes}}\n\nSUMMARY:\n{{.Summary}}"

const integratorPrompt = "Create an executive Meta Summary by fusing SUMMARY with the reviewer signal (CRITIC), " +
	"grounded strictly in NOTES. Do not invent metrics or citations.\n\n" +
	"Summarize the scientific contribution, novelty, and limitations based on the critic feedback." +
	"Output:\n" +
	"1) Five bullets with **bold labels**: Objective, Method, Results, Limitations, Takeaways\n" +
	"2) Two open technical questions\n" +
	"3) A one-line Confidence (High/Medium/Low) based on rubric: High if all ≥4; Medium if any 3; Low if any ≤2.\n\n" +
	"NOTES:\n{{.Notes}}\n\nSUMMARY:\n{{.Summary}}\n\nCRITIC:\n{{.Critic}}"

const judgePrompt = "Score the SUMMARY against NOTES for coherence, groundedness, and coverage. " +
	"Return a single integer 0-5 (0=worst, 5=best). No extra text.\n\n" +
	"NOTES:\n{{.Notes}}\n\nSUMMARY:\n{{.Summary}}"
