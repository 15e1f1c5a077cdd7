package oracle

import (
	"fmt"
	"strings"
)

// buildDecisionPrompt renders the observation, physics, memory context and
// action schema into one prompt. The provider is told to answer with bare
// JSON; extractJSON below copes with the fenced variants models emit
// anyway.
func buildDecisionPrompt(req *Request) string {
	var b strings.Builder

	b.WriteString("You are a physical reasoning agent. Your task: push a box into a goal zone in a 2D physics world.\n\n")

	fmt.Fprintf(&b, "LEVEL: %s\nGOAL: %s\n\n", req.Level, req.Goal)

	st := &req.State
	b.WriteString("CURRENT STATE:\n")
	fmt.Fprintf(&b, "- box position: (%.1f, %.1f)\n", st.Box.Position.X, st.Box.Position.Y)
	fmt.Fprintf(&b, "- box velocity: (%.1f, %.1f) px/s\n", st.Box.Velocity.X, st.Box.Velocity.Y)
	fmt.Fprintf(&b, "- goal position: (%.1f, %.1f), capture radius %.0f\n",
		st.Goal.Position.X, st.Goal.Position.Y, st.Goal.Radius)
	fmt.Fprintf(&b, "- distance to goal: %.1f\n", st.GoalDistance())
	fmt.Fprintf(&b, "- step %d of %d, %.0fs remaining\n", req.Step, req.MaxSteps, req.TimeLeftSec)
	fmt.Fprintf(&b, "- physics: mass %.1f, friction %.2f\n", st.Box.Mass, st.Box.Friction)
	if st.Gravity > 0 {
		fmt.Fprintf(&b, "- gravity: %.0f px/s² downward (the box falls unless redirected)\n", st.Gravity)
	}
	if len(st.Obstacles) > 0 {
		b.WriteString("- obstacles:\n")
		for _, ob := range st.Obstacles {
			fmt.Fprintf(&b, "    %s at (%.0f, %.0f) size %.0fx%.0f\n", ob.Kind, ob.X, ob.Y, ob.Width, ob.Height)
		}
	}
	fmt.Fprintf(&b, "- barriers remaining: %d\n\n", req.BarriersLeft)

	if len(req.Reflections) > 0 {
		b.WriteString("LESSONS LEARNED:\n")
		for _, r := range req.Reflections {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	if len(req.Memories) > 0 {
		b.WriteString("RELEVANT PAST EPISODES:\n")
		for _, m := range req.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}
	if len(req.History) > 0 {
		b.WriteString("ACTIONS THIS EPISODE:\n")
		fmt.Fprintf(&b, "%s\n\n", strings.Join(req.History, ", "))
	}

	b.WriteString(`AVAILABLE ACTIONS:
1. {"type": "push", "force_x": <-500..500>, "force_y": <-500..500>, "duration_ms": <1..5000>}
2. {"type": "barrier", "x": <px>, "y": <px>, "angle_deg": <degrees>}  (only if barriers remain)
3. {"type": "wait", "reason": "<why>"}
4. {"type": "observe", "focus": "<what>"}

Respond with ONLY a JSON object, no prose around it:
{
  "reasoning": "<your physical reasoning>",
  "action": <one action object from above>,
  "prediction": "<what you expect to happen>",
  "confidence": <0.0..1.0>,
  "observations": ["<notable fact>", ...],
  "strategy": "<one-line strategy name>",
  "alternatives": [<other action objects you considered>]
}`)

	return b.String()
}

// buildReflectionPrompt asks for one generalizable lesson over a set of
// episode memories.
func buildReflectionPrompt(memories []string) string {
	var b strings.Builder
	b.WriteString("You are reviewing an agent's attempts to push a box into a goal in a 2D physics world.\n\n")
	b.WriteString("EPISODE MEMORIES:\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	b.WriteString("\nGiven these memories, what generalizable lesson applies? ")
	b.WriteString("Answer with one or two sentences of plain text. No JSON, no list.")
	return b.String()
}

// extractJSON strips markdown code fences and surrounding prose so the
// decision parser sees bare JSON. Returns the input unchanged when no
// fence or brace is found.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
