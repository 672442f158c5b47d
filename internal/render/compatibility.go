package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/partpilot/server/internal/agent/model"
	logx "github.com/partpilot/server/pkg/logger"
)

// CompatibilityFacts answers whether a curated part/model fact exists. A
// miss is (nil, nil).
type CompatibilityFacts func(ctx context.Context, partNumber, modelNumber string) (*model.CompatibilityFact, error)

const bothMissingReply = `To check compatibility, I need:
1. The **part number** (like PS11701542)
2. Your **appliance model number** (like WRS325SDHZ)

You can provide both, or if you already mentioned a part, just give me your model number!`

// Compatibility resolves a compatibility question through a ladder of
// checks: cross-part replacement lists first, then slot completeness, then
// the curated facts. The second return value names the slot the user still
// owes an answer for, empty when the question was fully resolved.
func (r *Renderer) Compatibility(ctx context.Context, state *model.ConversationState, facts CompatibilityFacts) (string, string, error) {
	var part *model.Part
	partNumber := ""
	if len(state.RecommendedParts) > 0 {
		part = &state.RecommendedParts[0].Part
		partNumber = part.PartNumber
	}
	modelNumber := state.ModelNumber

	logx.Debug().
		Str("conversationID", state.ConversationID).
		Str("partNumber", partNumber).
		Str("modelNumber", modelNumber).
		Msg("rendering compatibility answer")

	// Two part numbers in play: answer from the replacement list.
	if part != nil {
		if codes := r.rules.PartNumbersIn(state.UserQuery); len(codes) > 0 {
			other := codes[0]
			if part.Replaces(other) {
				reply := fmt.Sprintf(`**Yes, %s and %s are compatible!**

These parts are listed as compatible replacements for each other.

Need help with anything else?`, other, partNumber)
				return reply, "", nil
			}
		}
	}

	if partNumber == "" && modelNumber == "" {
		return bothMissingReply, "", nil
	}

	if partNumber != "" && modelNumber == "" {
		return r.askForModelNumber(state, part), model.WaitingForModelNumber, nil
	}

	if partNumber == "" {
		reply := fmt.Sprintf(`I see your model number is **%s**. Which part would you like to check compatibility for?

You can provide:
- A part number (like PS11701542)
- Or describe the part (like "water filter" or "ice maker")`, modelNumber)
		return reply, model.WaitingForPartNumber, nil
	}

	reply, err := r.detailedCompatibility(ctx, part, modelNumber, facts)
	return reply, "", err
}

// askForModelNumber prompts for the model, calling out the case where the
// user handed over a second part number instead of a model number.
func (r *Renderer) askForModelNumber(state *model.ConversationState, part *model.Part) string {
	for _, candidate := range r.rules.CodesIn(state.UserQuery) {
		if candidate == part.PartNumber {
			continue
		}
		if r.rules.LooksLikePartNumber(candidate) {
			return fmt.Sprintf(`I notice you mentioned **%s** - this appears to be a **part number**, not a model number.

To check compatibility, I need your **appliance's model number**. This is usually found:
- On a sticker inside the refrigerator door
- On the back or side of the appliance
- In your owner's manual

Model numbers typically look like: **WRS325SDHZ**, **WDT780SAEM1**, **MFI2569VEM2**

Once you have your model number, I can check if part %s will fit!`, candidate, part.PartNumber)
		}
	}

	return fmt.Sprintf(`To check if **%s** (%s) will fit, I need your appliance's model number.

Where to find it:
- Inside the refrigerator door (on a sticker)
- On the back or side of the appliance
- Format: Usually letters and numbers like WRS325SDHZ

What's your model number?`, r.rules.CleanProductName(part.Name), part.PartNumber)
}

// detailedCompatibility runs the full ladder for a known part and model:
// curated fact, replacement list, universal-part heuristic, then an honest
// "couldn't confirm".
func (r *Renderer) detailedCompatibility(ctx context.Context, part *model.Part, modelNumber string, facts CompatibilityFacts) (string, error) {
	var b strings.Builder
	b.WriteString("**Compatibility Check**\n\n")
	fmt.Fprintf(&b, "**Part:** %s (%s)\n", r.rules.CleanProductName(part.Name), part.PartNumber)
	fmt.Fprintf(&b, "**Your Model:** %s\n", modelNumber)
	fmt.Fprintf(&b, "**Price:** %s\n", price(part.Price))
	if url := part.ProductURL(); url != "" {
		fmt.Fprintf(&b, "🔗 **Product Page:** %s\n", url)
	}
	b.WriteString("\n")

	fact, err := facts(ctx, part.PartNumber, modelNumber)
	if err != nil {
		return "", err
	}
	if fact != nil && fact.Compatible {
		fmt.Fprintf(&b, "✅ **Yes, this part is compatible with your %s!**\n", modelNumber)
		fmt.Fprintf(&b, "Confidence: %d%%\n\n", int(fact.ConfidenceScore*100))
		if fact.Notes != "" {
			fmt.Fprintf(&b, "**Note:** %s\n\n", fact.Notes)
		}
		fmt.Fprintf(&b, "Stock Status: %s\n", stockBadge(part.InStock))
		return b.String(), nil
	}

	if part.Replaces(modelNumber) {
		fmt.Fprintf(&b, "✅ **Yes, this part is compatible with your %s!**\n\n", modelNumber)
		fmt.Fprintf(&b, "Your model number **%s** is listed as a compatible replacement.\n\n", modelNumber)
		fmt.Fprintf(&b, "Stock Status: %s\n", stockBadge(part.InStock))
		return b.String(), nil
	}

	if r.rules.IsUniversalPart(part.Name, part.Brand, modelNumber, part.Specifications.ReplaceParts) {
		fmt.Fprintf(&b, "✅ **This %s should be compatible with your %s!**\n\n", part.Name, modelNumber)
		fmt.Fprintf(&b, "This is a %s %s part that works with multiple models.\n\n", part.Brand, part.Category)
		if replaces := part.Specifications.ReplaceParts; len(replaces) > 0 {
			fmt.Fprintf(&b, "**Also replaces:** %s\n\n", strings.Join(capList(replaces, 8), ", "))
		}
		b.WriteString("💡 **Tip:** Double-check the product page to confirm your model is listed.\n\n")
		fmt.Fprintf(&b, "Stock Status: %s\n", stockBadge(part.InStock))
		return b.String(), nil
	}

	b.WriteString("⚠️ **I couldn't confirm compatibility for this combination.**\n\n")
	b.WriteString("This doesn't necessarily mean they're incompatible - I just don't have explicit data.\n\n")
	b.WriteString("**To verify:**\n")
	b.WriteString("1. Check the product page above for compatible models\n")
	fmt.Fprintf(&b, "2. Look for your model number (%s) in the specifications\n", modelNumber)
	fmt.Fprintf(&b, "3. Contact %s support to confirm\n\n", part.Brand)
	fmt.Fprintf(&b, "Stock Status: %s\n", stockBadge(part.InStock))
	return b.String(), nil
}
