package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  format     Format model responses into safe HTML")
	fmt.Fprintln(w, "  ask        Send a prompt to the model and format the answer")
	fmt.Fprintln(w, "  history    List, show or delete recorded chats")
	fmt.Fprintln(w, "  copy       Copy a code block or message to the clipboard")
	fmt.Fprintln(w, "  serve      Serve the chat page and formatting API")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check configuration and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'chatfmt help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed logs")
}

// printFormatUsage prints usage for the format command.
func printFormatUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt format [input] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Format model responses into HTML safe to insert in a page.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .md, .markdown or .txt file, directory, or - for stdin")
	fmt.Fprintln(w, "           (default: input.defaultDir from config, else stdin)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --page                Write a standalone HTML page")
	fmt.Fprintln(w, "      --title <s>           Page title (default: file name)")
	fmt.Fprintln(w, "      --report              Print what was repaired or removed")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printAskUsage prints usage for the ask command.
func printAskUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt ask <prompt> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Send a prompt to the model endpoint and print the formatted answer.")
	fmt.Fprintln(w, "The API key is read from CHATFMT_API_KEY. Use - to read the prompt from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --chat <id>           Continue a recorded chat")
	fmt.Fprintln(w, "      --system <s>          Extra system instruction")
	fmt.Fprintln(w, "  -t, --timeout <d>         Completion timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --plain               Print the raw markdown answer")
	fmt.Fprintln(w, "      --no-save             Do not record the exchange")
	fmt.Fprintln(w, "      --copy                Copy the answer text to the clipboard")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printHistoryUsage prints usage for the history command.
func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt history [list | show <id> | delete <id>] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manage recorded chats. Dates use history.dateFormat:")
	fmt.Fprintln(w, "  Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, mm, ss")
	fmt.Fprintln(w, "  Presets (case-insensitive): iso, european, us, long, datetime")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --raw                 show: print raw markdown answers")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printCopyUsage prints usage for the copy command.
func printCopyUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt copy [file.html | -] (--block <id> | --message) [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy text from formatted HTML to the system clipboard.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -b, --block <id>          Code block id (the data-copy-target value)")
	fmt.Fprintln(w, "  -m, --message             Whole message as plain text")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the chat page, the formatting API and /metrics.")
	fmt.Fprintln(w, "Without CHATFMT_API_KEY the page shows recorded chats read-only.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: server.addr)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/ and templates/ directory")
	fmt.Fprintln(w, "      --no-metrics          Disable /metrics")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after applying the file and CHATFMT_* variables.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chatfmt doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check configuration, history storage and clipboard support.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "format":
		printFormatUsage(env.Stdout)
	case "ask":
		printAskUsage(env.Stdout)
	case "history":
		printHistoryUsage(env.Stdout)
	case "copy":
		printCopyUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: chatfmt version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: chatfmt help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
