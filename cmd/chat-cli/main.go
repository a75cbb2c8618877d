// chat-cli 终端聊天客户端，连接 portfolio-ai 服务端调试对话
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hzwen/portfolio-ai/internal/chatclient"
)

var (
	serverURL string
	provider  string
	stateDir  string
	timeout   int
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chat-cli",
		Short: "Terminal chat client for the portfolio assistant",
		RunE:  runChat,
	}

	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")
	rootCmd.Flags().StringVar(&provider, "provider", "openai", "chat provider (openai or gemini)")
	rootCmd.Flags().StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for persisted client state")
	rootCmd.Flags().IntVar(&timeout, "timeout", 0, "send timeout in seconds (0 uses the default)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chat-cli"
	}
	return filepath.Join(home, ".chat-cli")
}

func runChat(cmd *cobra.Command, args []string) error {
	durable, err := chatclient.NewFileStore(filepath.Join(stateDir, "state.json"))
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}

	client := chatclient.NewClient(chatclient.Config{
		BaseURL:      serverURL,
		Provider:     provider,
		DurableStore: durable,
		SendTimeout:  time.Duration(timeout) * time.Second,
	})
	cooldown := chatclient.NewCooldown()

	ctx := cmd.Context()
	client.Init(ctx)

	fmt.Println(systemStyle.Render(fmt.Sprintf("Connected to %s (%s route). Type /help for commands.", serverURL, provider)))
	printHistory(client)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(userStyle.Render("you> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Println(systemStyle.Render("/history  show the conversation\n/clear    clear the conversation\n/quit     exit"))
			continue
		case "/history":
			printHistory(client)
			continue
		case "/clear":
			client.ClearChat(ctx)
			fmt.Println(systemStyle.Render("Conversation cleared."))
			continue
		}

		if cooldown.IsCooldownActive() {
			fmt.Println(errorStyle.Render(cooldown.CooldownMessage()))
			continue
		}

		if client.SendMessage(ctx, line) {
			cooldown.ResetCooldown()
			printLast(client)
		} else {
			cooldown.StartCooldown()
			cooldown.IncrementErrorCount()
			printLast(client)
			fmt.Println(errorStyle.Render(cooldown.CooldownMessage()))
		}
	}
}

// printHistory 输出全部消息
func printHistory(client *chatclient.Client) {
	for _, msg := range client.Messages() {
		printMessage(msg)
	}
}

// printLast 输出最后一条助手消息
func printLast(client *chatclient.Client) {
	messages := client.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chatclient.RoleAssistant {
			printMessage(messages[i])
			return
		}
	}
}

func printMessage(msg chatclient.ChatMessage) {
	switch msg.Role {
	case chatclient.RoleUser:
		fmt.Println(userStyle.Render("you: ") + msg.Content)
	case chatclient.RoleAssistant:
		fmt.Println(assistantStyle.Render("assistant: ") + msg.Content)
	default:
		fmt.Println(systemStyle.Render(msg.Content))
	}
}
