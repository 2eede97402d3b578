// Package llm provides the customer service responders.
//
// The factory creates a responder based on provider configuration:
//   - anthropic: Anthropic Claude through the official SDK, falling back
//     to the template responder when a call fails
//   - template: canned replies picked by keyword, used without an API key
package llm
