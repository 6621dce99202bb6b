package crew

import (
	"fmt"
	"strings"
)

// Task is one unit of work assigned to an agent within a crew. Tasks are
// instantiated fresh per pipeline invocation; outputs of earlier tasks are
// handed to later ones as context.
type Task struct {
	Agent          Agent
	Description    string
	ExpectedOutput string
}

// DefaultPlatforms are the platforms content tasks target when the caller
// does not override them.
var DefaultPlatforms = []string{"twitter", "instagram", "linkedin"}

// NewContentTask builds the trend research and post drafting task.
func NewContentTask(niche string, platforms []string) Task {
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return Task{
		Agent: ContentCreator(),
		Description: fmt.Sprintf(
			"Research the latest trends in '%s' and create engaging content "+
				"for these platforms: %s.\n\n"+
				"For each platform, create:\n"+
				"- Twitter: 3 tweets (max 280 chars each, include hashtags)\n"+
				"- Instagram: 1 caption (with emojis, hashtags, CTA)\n"+
				"- LinkedIn: 1 professional post (thought leadership style)\n\n"+
				"Research trending topics first, then create platform-optimized content. "+
				"Save each post using the save tool.",
			niche, strings.Join(platforms, ", ")),
		ExpectedOutput: "A set of platform-specific posts saved to files, with a summary " +
			"of what was created and why these topics were chosen.",
	}
}

// NewSocialTask builds the scheduling task that consumes drafted content.
func NewSocialTask() Task {
	return Task{
		Agent: SocialMediaManager(),
		Description: "Review the generated content from the previous task and schedule " +
			"it for posting.\n\n" +
			"For each post:\n" +
			"1. Review and optimize the copy if needed\n" +
			"2. Add appropriate hashtags if missing\n" +
			"3. Schedule via Buffer at optimal times\n" +
			"4. If Buffer is not configured, save posts locally with scheduling notes\n\n" +
			"Optimal posting times:\n" +
			"- Twitter: 9 AM, 1 PM, 6 PM\n" +
			"- Instagram: 11 AM, 7 PM\n" +
			"- LinkedIn: 8 AM, 12 PM",
		ExpectedOutput: "Confirmation of posts scheduled or saved, with platform, " +
			"time, and content summary for each.",
	}
}

// NewSEOTask builds the keyword research and article generation task.
func NewSEOTask(topic string, numArticles int) Task {
	if numArticles <= 0 {
		numArticles = 3
	}
	return Task{
		Agent: SEOSpecialist(),
		Description: fmt.Sprintf(
			"Create %d SEO-optimized articles about '%s'.\n\n"+
				"Steps:\n"+
				"1. Research keywords using the keyword tool\n"+
				"2. Find long-tail keywords with high intent\n"+
				"3. For each article:\n"+
				"   - Write 1500+ word comprehensive article\n"+
				"   - Include target keyword in title, H2s, and naturally in body\n"+
				"   - Add internal linking suggestions\n"+
				"   - Include FAQ section targeting 'People Also Ask' queries\n"+
				"   - Save using the article save tool",
			numArticles, topic),
		ExpectedOutput: "Articles saved with target keywords, word count, " +
			"and SEO optimization notes for each.",
	}
}

// NewEmailTask builds the 7-email nurture sequence task.
func NewEmailTask(productName, valueProposition string) Task {
	return Task{
		Agent: EmailSpecialist(),
		Description: fmt.Sprintf(
			"Create a 7-email nurture sequence for '%s'.\n\n"+
				"Value proposition: %s\n\n"+
				"Email sequence:\n"+
				"1. Welcome email (immediate) - introduce brand, set expectations\n"+
				"2. Value email #1 (day 2) - educational content, no selling\n"+
				"3. Case study (day 4) - social proof, results\n"+
				"4. Value email #2 (day 6) - more education, tips\n"+
				"5. Soft CTA (day 8) - introduce product naturally\n"+
				"6. Promotion (day 10) - clear offer, urgency\n"+
				"7. Feedback (day 14) - ask for input, re-engage\n\n"+
				"For each email, write a compelling subject line and full body. "+
				"Save each as a draft.",
			productName, valueProposition),
		ExpectedOutput: "7 email drafts saved with subject lines, send timing, " +
			"and expected open/click rates.",
	}
}

// NewAnalyticsTask builds the daily performance review task.
func NewAnalyticsTask() Task {
	return Task{
		Agent: AnalyticsStrategist(),
		Description: "Review all marketing performance data and create a daily report.\n\n" +
			"Analyze:\n" +
			"1. Social media: engagement rates, follower growth, top posts\n" +
			"2. Email: open rates, click rates, unsubscribes\n" +
			"3. SEO: organic traffic, keyword rankings, new pages indexed\n" +
			"4. Overall: conversion rates, lead count, revenue if available\n\n" +
			"Then:\n" +
			"- Identify top 3 wins\n" +
			"- Identify top 3 areas for improvement\n" +
			"- Provide specific action items for tomorrow\n" +
			"- Save the report and send a Telegram summary to the owner",
		ExpectedOutput: "Daily report saved and Telegram notification sent with " +
			"key metrics and action items.",
	}
}
