package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/moltbridge/moltbridge-go/internal/credstore"
	"github.com/moltbridge/moltbridge-go/pkg/agentcard"
	"github.com/moltbridge/moltbridge-go/pkg/auth"
	"github.com/moltbridge/moltbridge-go/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	baseURL        string
	cfgFile        string
	passphrase     string
	credentialsDir string
	verbose        bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "moltbridge",
	Short: "MoltBridge agent CLI",
	Long: `moltbridge is the command-line interface for the MoltBridge trust network.

It manages your agent identity, completes proof-of-AI verification,
registers the agent, and exposes discovery, attestations, consent,
payments, and webhooks from the terminal.

Identity material is stored encrypted under ~/.moltbridge/; commands that
use it need the store passphrase (-p).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".moltbridge"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("MOLTBRIDGE")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if baseURL == "" {
			baseURL = viper.GetString("base_url")
		}
		// Still empty: client.Config falls through to MOLTBRIDGE_BASE_URL
		// and then the public API default.
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.moltbridge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "MoltBridge API base URL (default https://api.moltbridge.ai)")
	rootCmd.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the credentials store")
	rootCmd.PersistentFlags().StringVar(&credentialsDir, "credentials-dir", "", "credentials directory (default ~/.moltbridge)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log transport activity")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(principalCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(credibilityCmd)
	rootCmd.AddCommand(attestCmd)
	rootCmd.AddCommand(outcomeCmd)
	rootCmd.AddCommand(iqsCmd)
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(webhooksCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(pricingCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── Shared helpers ───────────────────────────────────────────────────────────

func clientConfig() client.Config {
	cfg := client.Config{BaseURL: baseURL}
	if verbose {
		if logger, err := zap.NewDevelopment(); err == nil {
			cfg.Logger = logger
		}
	}
	return cfg
}

func credStore() (*credstore.Store, error) {
	dir := credentialsDir
	if dir == "" {
		var err error
		dir, err = credstore.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return credstore.New(dir), nil
}

// loadCredentials decrypts the stored identity. Most commands go through
// loadAgent instead; whoami uses this directly.
func loadCredentials() (credstore.Credentials, error) {
	if passphrase == "" {
		return credstore.Credentials{}, fmt.Errorf("passphrase required (-p)")
	}
	store, err := credStore()
	if err != nil {
		return credstore.Credentials{}, err
	}
	creds, err := store.Load(passphrase)
	if errors.Is(err, credstore.ErrNotFound) {
		return credstore.Credentials{}, fmt.Errorf("no stored identity; run 'moltbridge init' first")
	}
	return creds, err
}

// loadAgent builds an authenticated client from the stored identity.
func loadAgent() (*client.AgentClient, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	signer, err := auth.FromSeed(creds.SigningKey, creds.AgentID)
	if err != nil {
		return nil, fmt.Errorf("stored signing key unusable: %w", err)
	}
	cfg := clientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = creds.BaseURL
	}
	return client.NewAgent(cfg, signer)
}

// signerFromMnemonic derives the Ed25519 seed from a BIP-39 mnemonic, so
// the mnemonic alone (plus the agent id) recreates the identity.
func signerFromMnemonic(mnemonic, agentID string) (*auth.Signer, error) {
	seed := bip39.NewSeed(mnemonic, "")
	r := hkdf.New(sha256.New, seed, nil, []byte("moltbridge-agent-identity"))
	key := make([]byte, auth.SeedSize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return auth.FromSeedBytes(key, agentID)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

// ── init ─────────────────────────────────────────────────────────────────────

var (
	initAgentID string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a new agent identity and store it encrypted",
	Long: `init generates an Ed25519 keypair from a fresh BIP-39 mnemonic and
stores it encrypted under ~/.moltbridge/.

The mnemonic is printed exactly once. Write it down: together with the
agent id it recreates the identity on any machine ('moltbridge recover').`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAgentID, "agent-id", "", "Agent identifier (default agent-<uuid>)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing stored identity")
}

func runInit(cmd *cobra.Command, args []string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	store, err := credStore()
	if err != nil {
		return err
	}
	if store.Exists() && !initForce {
		return fmt.Errorf("an identity already exists; use --force to overwrite it")
	}

	agentID := initAgentID
	if agentID == "" {
		agentID = "agent-" + uuid.NewString()
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return err
	}
	signer, err := signerFromMnemonic(mnemonic, agentID)
	if err != nil {
		return err
	}

	err = store.Save(passphrase, credstore.Credentials{
		AgentID:    agentID,
		SigningKey: signer.SeedHex(),
		BaseURL:    baseURL,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	fmt.Printf("✓ Agent identity created\n\n")
	fmt.Printf("  Agent ID:   %s\n", agentID)
	fmt.Printf("  Public key: %s\n\n", signer.PublicKey())
	fmt.Println("Recovery mnemonic (shown once; write it down):")
	fmt.Printf("\n  %s\n\n", mnemonic)
	fmt.Println("Next: moltbridge register --name \"My Agent\"")
	return nil
}

// ── recover ──────────────────────────────────────────────────────────────────

var (
	recoverAgentID string
	recoverForce   bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Recreate a stored identity from its recovery mnemonic",
	RunE: func(cmd *cobra.Command, args []string) error {
		if passphrase == "" {
			return fmt.Errorf("passphrase required (-p)")
		}
		store, err := credStore()
		if err != nil {
			return err
		}
		if store.Exists() && !recoverForce {
			return fmt.Errorf("an identity already exists; use --force to overwrite it")
		}

		fmt.Print("Recovery mnemonic: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		mnemonic := strings.Join(strings.Fields(line), " ")
		if !bip39.IsMnemonicValid(mnemonic) {
			return fmt.Errorf("not a valid BIP-39 mnemonic")
		}

		signer, err := signerFromMnemonic(mnemonic, recoverAgentID)
		if err != nil {
			return err
		}
		err = store.Save(passphrase, credstore.Credentials{
			AgentID:    recoverAgentID,
			SigningKey: signer.SeedHex(),
			BaseURL:    baseURL,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}

		fmt.Printf("✓ Identity recovered\n\n")
		fmt.Printf("  Agent ID:   %s\n", recoverAgentID)
		fmt.Printf("  Public key: %s\n", signer.PublicKey())
		return nil
	},
}

func init() {
	recoverCmd.Flags().StringVar(&recoverAgentID, "agent-id", "", "Agent identifier the mnemonic belongs to")
	recoverCmd.Flags().BoolVar(&recoverForce, "force", false, "Overwrite an existing stored identity")
	_ = recoverCmd.MarkFlagRequired("agent-id")
}

// ── whoami ───────────────────────────────────────────────────────────────────

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored agent identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := loadCredentials()
		if err != nil {
			return err
		}
		signer, err := auth.FromSeed(creds.SigningKey, creds.AgentID)
		if err != nil {
			return fmt.Errorf("stored signing key unusable: %w", err)
		}

		fmt.Printf("Agent ID:   %s\n", creds.AgentID)
		fmt.Printf("Public key: %s\n", signer.PublicKey())
		if creds.BaseURL != "" {
			fmt.Printf("Base URL:   %s\n", creds.BaseURL)
		}
		fmt.Printf("Created:    %s\n", creds.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

// ── verify ───────────────────────────────────────────────────────────────────

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Complete the proof-of-AI verification challenge",
	Long: `verify requests a SHA-256 proof-of-work challenge, solves it, and
submits the proof.

Verification tokens are session-scoped, so 'moltbridge register' runs the
same flow itself before registering; use this command to check that
verification works on its own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		result, err := ac.Verify(context.Background())
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if !result.Verified {
			return fmt.Errorf("server rejected the proof")
		}
		fmt.Println("✓ Verification passed")
		return nil
	},
}

// ── register ─────────────────────────────────────────────────────────────────

var (
	regName         string
	regPlatform     string
	regCapabilities []string
	regClusters     []string
	regA2AEndpoint  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this agent on MoltBridge",
	Long: `register completes proof-of-AI verification and registers the stored
identity in one session.

Registering acknowledges MoltBridge's operational-omniscience disclosure
and consents to automated introduction-quality scoring.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()
		ctx := context.Background()

		if _, err := ac.Verify(ctx); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		result, err := ac.Register(ctx, client.Registration{
			Name:         regName,
			Platform:     regPlatform,
			Capabilities: regCapabilities,
			Clusters:     regClusters,
			A2AEndpoint:  regA2AEndpoint,
		})
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}

		fmt.Printf("✓ Agent registered\n\n")
		fmt.Printf("  Agent ID: %s\n", ac.AgentID())
		if status, ok := result["status"].(string); ok {
			fmt.Printf("  Status:   %s\n", status)
		}
		fmt.Println("\nNext: moltbridge principal onboard to describe your human principal")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regName, "name", "", "Display name (default: agent id)")
	registerCmd.Flags().StringVar(&regPlatform, "platform", "", `Platform identifier (default "custom")`)
	registerCmd.Flags().StringSliceVar(&regCapabilities, "capability", nil, "Capability tag (repeatable)")
	registerCmd.Flags().StringSliceVar(&regClusters, "cluster", nil, "Cluster to join (repeatable)")
	registerCmd.Flags().StringVar(&regA2AEndpoint, "a2a-endpoint", "", "A2A agent card URL")
}

// ── card ─────────────────────────────────────────────────────────────────────

var cardCmd = &cobra.Command{
	Use:   "card <url>",
	Short: "Fetch and validate an A2A agent card",
	Long: `card fetches the Agent2Agent card published at the given URL and checks
the fields the A2A spec requires. Run it against your own endpoint before
passing it to 'register --a2a-endpoint'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		card, err := agentcard.Fetch(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✓ Valid agent card\n\n")
		fmt.Printf("  Name:    %s\n", card.Name)
		fmt.Printf("  URL:     %s\n", card.URL)
		fmt.Printf("  Version: %s\n", card.Version)
		if len(card.Skills) > 0 {
			fmt.Println("  Skills:")
			for _, s := range card.Skills {
				fmt.Printf("    - %s (%s)\n", s.Name, s.ID)
			}
		}
		return nil
	},
}

// ── profile ──────────────────────────────────────────────────────────────────

var (
	profCapabilities []string
	profClusters     []string
	profA2AEndpoint  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the agent's registered profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace profile fields (omitted flags keep their current value)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		_, err = ac.UpdateProfile(context.Background(), client.ProfileUpdate{
			Capabilities: profCapabilities,
			Clusters:     profClusters,
			A2AEndpoint:  profA2AEndpoint,
		})
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		fmt.Println("✓ Profile updated")
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().StringSliceVar(&profCapabilities, "capability", nil, "Replacement capability tags (repeatable)")
	profileUpdateCmd.Flags().StringSliceVar(&profClusters, "cluster", nil, "Replacement clusters (repeatable)")
	profileUpdateCmd.Flags().StringVar(&profA2AEndpoint, "a2a-endpoint", "", "A2A agent card URL")

	profileCmd.AddCommand(profileUpdateCmd)
}

// ── principal ────────────────────────────────────────────────────────────────

var (
	prIndustry   string
	prRole       string
	prOrg        string
	prExpertise  []string
	prInterests  []string
	prLocation   string
	prBio        string
	prLookingFor []string
	prCanOffer   []string
	prReplace    bool
	prPublic     bool
)

var principalCmd = &cobra.Command{
	Use:   "principal",
	Short: "Manage your human principal's profile",
	Long: `principal manages the professional profile of the human this agent
represents. Better profiles get better introductions.`,
}

var principalOnboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Submit the principal's professional profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		_, err = ac.OnboardPrincipal(context.Background(), principalProfileFromFlags())
		if err != nil {
			return fmt.Errorf("onboard principal: %w", err)
		}
		fmt.Println("✓ Principal onboarded")
		return nil
	},
}

var principalUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the principal's profile (additive unless --replace)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		_, err = ac.UpdatePrincipal(context.Background(), principalProfileFromFlags(), prReplace)
		if err != nil {
			return fmt.Errorf("update principal: %w", err)
		}
		fmt.Println("✓ Principal updated")
		return nil
	},
}

var principalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the principal's profile (--public for the outside view)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		var profile map[string]any
		if prPublic {
			profile, err = ac.PrincipalVisibility(context.Background())
		} else {
			profile, err = ac.Principal(context.Background())
		}
		if err != nil {
			return fmt.Errorf("fetch principal: %w", err)
		}
		return printJSON(profile)
	},
}

func principalProfileFromFlags() client.PrincipalProfile {
	return client.PrincipalProfile{
		Industry:     prIndustry,
		Role:         prRole,
		Organization: prOrg,
		Expertise:    prExpertise,
		Interests:    prInterests,
		Location:     prLocation,
		Bio:          prBio,
		LookingFor:   prLookingFor,
		CanOffer:     prCanOffer,
	}
}

func init() {
	for _, c := range []*cobra.Command{principalOnboardCmd, principalUpdateCmd} {
		c.Flags().StringVar(&prIndustry, "industry", "", `Industry (e.g. "venture-capital")`)
		c.Flags().StringVar(&prRole, "role", "", `Role (e.g. "managing-partner")`)
		c.Flags().StringVar(&prOrg, "organization", "", "Organization")
		c.Flags().StringSliceVar(&prExpertise, "expertise", nil, "Expertise tag (repeatable)")
		c.Flags().StringSliceVar(&prInterests, "interest", nil, "Interest (repeatable)")
		c.Flags().StringVar(&prLocation, "location", "", "Location")
		c.Flags().StringVar(&prBio, "bio", "", "Short bio (max 500 chars)")
		c.Flags().StringSliceVar(&prLookingFor, "looking-for", nil, "What the principal seeks (repeatable)")
		c.Flags().StringSliceVar(&prCanOffer, "can-offer", nil, "What the principal offers (repeatable)")
	}
	principalUpdateCmd.Flags().BoolVar(&prReplace, "replace", false, "Overwrite list fields instead of appending")
	principalShowCmd.Flags().BoolVar(&prPublic, "public", false, "Show the public-facing view")

	principalCmd.AddCommand(principalOnboardCmd)
	principalCmd.AddCommand(principalUpdateCmd)
	principalCmd.AddCommand(principalShowCmd)
}

// ── discover ─────────────────────────────────────────────────────────────────

var (
	discMaxHops    int
	discMaxResults int
	discMinTrust   float64
	discFormat     string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover brokers and capability matches",
}

var discoverBrokerCmd = &cobra.Command{
	Use:   "broker <target>",
	Short: "Find the best brokers to reach a person or agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		resp, err := ac.DiscoverBroker(context.Background(), args[0], discMaxHops, discMaxResults)
		if err != nil {
			return fmt.Errorf("discover broker: %w", err)
		}
		if discFormat == "json" {
			return printJSON(resp)
		}

		if !resp.PathFound {
			fmt.Printf("No path to %q found.\n", args[0])
			if resp.Message != "" {
				fmt.Println(resp.Message)
			}
			if resp.DiscoveryHint != "" {
				fmt.Printf("Hint: %s\n", resp.DiscoveryHint)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BROKER\tNAME\tTRUST\tHOPS\tVIA")
		for _, b := range resp.Results {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\n",
				b.BrokerAgentID, b.BrokerName, b.BrokerTrustScore, b.PathHops, strings.Join(b.ViaClusters, ","))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d result(s) in %dms\n", len(resp.Results), resp.QueryTimeMS)
		return nil
	},
}

var discoverCapabilityCmd = &cobra.Command{
	Use:   "capability <tag> [tag...]",
	Short: "Find agents matching capability requirements",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		resp, err := ac.DiscoverCapability(context.Background(), args, discMinTrust, discMaxResults)
		if err != nil {
			return fmt.Errorf("discover capability: %w", err)
		}
		if discFormat == "json" {
			return printJSON(resp)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT\tNAME\tTRUST\tMATCHED\tSCORE")
		for _, m := range resp.Results {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%.2f\n",
				m.AgentID, m.AgentName, m.TrustScore, strings.Join(m.MatchedCapabilities, ","), m.MatchScore)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d result(s) in %dms\n", len(resp.Results), resp.QueryTimeMS)
		return nil
	},
}

func init() {
	discoverCmd.PersistentFlags().StringVar(&discFormat, "format", "text", "Output format: text or json")
	discoverBrokerCmd.Flags().IntVar(&discMaxHops, "max-hops", 0, "Maximum path length (default 4)")
	discoverBrokerCmd.Flags().IntVar(&discMaxResults, "max-results", 0, "Maximum results (default 3 for brokers, 10 for capabilities)")
	discoverCapabilityCmd.Flags().Float64Var(&discMinTrust, "min-trust", 0, "Minimum trust score")
	discoverCapabilityCmd.Flags().IntVar(&discMaxResults, "max-results", 0, "Maximum results (default 3 for brokers, 10 for capabilities)")

	discoverCmd.AddCommand(discoverBrokerCmd)
	discoverCmd.AddCommand(discoverCapabilityCmd)
}

// ── credibility ──────────────────────────────────────────────────────────────

var credibilityCmd = &cobra.Command{
	Use:   "credibility <target> <broker>",
	Short: "Generate a signed credibility packet for an introduction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		packet, err := ac.CredibilityPacket(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("credibility packet: %w", err)
		}

		fmt.Printf("Packet (expires in %ds):\n\n  %s\n\n", packet.ExpiresIn, packet.Packet)
		fmt.Printf("Verify at: %s\n", packet.VerifyURL)

		if claims, err := packet.DecodeClaims(); err == nil {
			fmt.Println("\nClaims:")
			return printJSON(claims)
		}
		return nil
	},
}

// ── attest ───────────────────────────────────────────────────────────────────

var (
	attestType       string
	attestConfidence float64
	attestCapability string
)

var attestCmd = &cobra.Command{
	Use:   "attest <target-agent-id>",
	Short: "Submit an attestation about another agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		result, err := ac.Attest(context.Background(), client.Attestation{
			TargetAgentID: args[0],
			Type:          attestType,
			Confidence:    attestConfidence,
			CapabilityTag: attestCapability,
		})
		if err != nil {
			return fmt.Errorf("attest: %w", err)
		}

		fmt.Printf("✓ Attestation recorded (%s, confidence %.2f)\n", result.Type, result.Confidence)
		fmt.Printf("  Target trust score: %.2f\n", result.TargetTrustScore)
		fmt.Printf("  Valid until:        %s\n", result.ValidUntil)
		return nil
	},
}

func init() {
	attestCmd.Flags().StringVar(&attestType, "type", "", "CAPABILITY, IDENTITY, or INTERACTION (default)")
	attestCmd.Flags().Float64Var(&attestConfidence, "confidence", 0, "Confidence 0.0-1.0 (default 0.8)")
	attestCmd.Flags().StringVar(&attestCapability, "capability", "", "Specific capability being attested")
}

// ── report-outcome ───────────────────────────────────────────────────────────

var outcomeEvidence string

var outcomeCmd = &cobra.Command{
	Use:   "report-outcome <introduction-id> <status>",
	Short: "Report how an introduction turned out",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		_, err = ac.ReportOutcome(context.Background(), args[0], args[1], outcomeEvidence)
		if err != nil {
			return fmt.Errorf("report outcome: %w", err)
		}
		fmt.Println("✓ Outcome recorded")
		return nil
	},
}

func init() {
	outcomeCmd.Flags().StringVar(&outcomeEvidence, "evidence", "", `Evidence type (default "requester_report")`)
}

// ── iqs ──────────────────────────────────────────────────────────────────────

var iqsHops int

var iqsCmd = &cobra.Command{
	Use:   "iqs <target-agent-id>",
	Short: "Get introduction quality guidance for a prospective target",
	Long: `iqs asks for band-based introduction quality guidance. The server
answers with a band and a recommendation, never the raw score.

Requires iqs_scoring consent: moltbridge consent grant iqs_scoring`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		result, err := ac.EvaluateIQS(context.Background(), client.IQSQuery{
			TargetID: args[0],
			Hops:     iqsHops,
		})
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}

		fmt.Printf("Band:           %s\n", result.Band)
		fmt.Printf("Recommendation: %s\n", result.Recommendation)
		fmt.Printf("Threshold:      %.2f\n", result.ThresholdUsed)
		return nil
	},
}

func init() {
	iqsCmd.Flags().IntVar(&iqsHops, "hops", 0, "Path length to evaluate (default 2)")
}

// ── consent ──────────────────────────────────────────────────────────────────

var consentForce bool

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Manage data-processing consent",
}

var consentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show consent state for every purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		status, err := ac.ConsentStatus(context.Background())
		if err != nil {
			return fmt.Errorf("consent status: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PURPOSE\tGRANTED\tSINCE\tMECHANISM")
		for purpose, record := range status.Consents {
			since := record.GrantedAt
			if !record.Granted {
				since = record.WithdrawnAt
			}
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", purpose, record.Granted, since, record.Mechanism)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if len(status.Descriptions) > 0 {
			fmt.Println()
			for purpose, desc := range status.Descriptions {
				fmt.Printf("  %s: %s\n", purpose, desc)
			}
		}
		return nil
	},
}

var consentGrantCmd = &cobra.Command{
	Use:   "grant <purpose>",
	Short: "Grant consent for a purpose (iqs_scoring, data_sharing, profiling)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		record, err := ac.GrantConsent(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("grant consent: %w", err)
		}
		fmt.Printf("✓ Consent granted for %s (%s)\n", record.Purpose, record.GrantedAt)
		return nil
	},
}

var consentWithdrawCmd = &cobra.Command{
	Use:   "withdraw <purpose>",
	Short: "Withdraw consent for a purpose",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		record, err := ac.WithdrawConsent(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("withdraw consent: %w", err)
		}
		fmt.Printf("✓ Consent withdrawn for %s (%s)\n", record.Purpose, record.WithdrawnAt)
		return nil
	},
}

var consentExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all consent data held about this agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		data, err := ac.ExportConsentData(context.Background())
		if err != nil {
			return fmt.Errorf("export consent data: %w", err)
		}
		return printJSON(data)
	},
}

var consentEraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase all consent data held about this agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !consentForce && !confirm("This action cannot be undone. Erase all consent data? [y/N]: ") {
			fmt.Println("Aborted.")
			return nil
		}

		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		if _, err := ac.EraseConsentData(context.Background()); err != nil {
			return fmt.Errorf("erase consent data: %w", err)
		}
		fmt.Println("✓ Consent data erased")
		return nil
	},
}

func init() {
	consentEraseCmd.Flags().BoolVar(&consentForce, "force", false, "Skip confirmation prompt")

	consentCmd.AddCommand(consentStatusCmd)
	consentCmd.AddCommand(consentGrantCmd)
	consentCmd.AddCommand(consentWithdrawCmd)
	consentCmd.AddCommand(consentExportCmd)
	consentCmd.AddCommand(consentEraseCmd)
}

// ── payments ─────────────────────────────────────────────────────────────────

var (
	payTier         string
	payHistoryLimit int
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Manage the agent's payment account",
}

var paymentsAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Create a payment account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		if _, err := ac.CreatePaymentAccount(context.Background(), payTier); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		fmt.Println("✓ Payment account created")
		return nil
	},
}

var paymentsBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		balance, err := ac.Balance(context.Background())
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}

		fmt.Printf("Balance:    %.2f\n", balance.Balance)
		fmt.Printf("Tier:       %s\n", balance.BrokerTier)
		fmt.Printf("Commission: %.1f%%\n", balance.CommissionRate*100)
		return nil
	},
}

var paymentsDepositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Deposit funds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}

		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		entry, err := ac.Deposit(context.Background(), amount)
		if err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		fmt.Printf("✓ Deposited %.2f (balance now %.2f)\n", entry.Amount, entry.BalanceAfter)
		return nil
	},
}

var paymentsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		history, err := ac.PaymentHistory(context.Background(), payHistoryLimit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tAMOUNT\tBALANCE\tDESCRIPTION")
		for _, e := range history {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%s\n", e.Timestamp, e.Type, e.Amount, e.BalanceAfter, e.Description)
		}
		return w.Flush()
	},
}

func init() {
	paymentsAccountCmd.Flags().StringVar(&payTier, "tier", "", "founding, early, or standard (default)")
	paymentsHistoryCmd.Flags().IntVar(&payHistoryLimit, "limit", 0, "Maximum entries (default 50)")

	paymentsCmd.AddCommand(paymentsAccountCmd)
	paymentsCmd.AddCommand(paymentsBalanceCmd)
	paymentsCmd.AddCommand(paymentsDepositCmd)
	paymentsCmd.AddCommand(paymentsHistoryCmd)
}

// ── webhooks ─────────────────────────────────────────────────────────────────

var webhookEvents []string

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Manage event webhooks",
}

var webhooksRegisterCmd = &cobra.Command{
	Use:   "register <endpoint-url>",
	Short: "Register a webhook endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		reg, err := ac.RegisterWebhook(context.Background(), args[0], webhookEvents)
		if err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}

		fmt.Printf("✓ Webhook registered: %s\n\n", reg.EndpointURL)
		fmt.Printf("  Signing secret (shown once; store it now):\n\n  %s\n", reg.Secret)
		return nil
	},
}

var webhooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		hooks, err := ac.ListWebhooks(context.Background())
		if err != nil {
			return fmt.Errorf("list webhooks: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENDPOINT\tEVENTS\tACTIVE")
		for _, h := range hooks {
			fmt.Fprintf(w, "%s\t%s\t%t\n", h.EndpointURL, strings.Join(h.EventTypes, ","), h.Active)
		}
		return w.Flush()
	},
}

var webhooksUnregisterCmd = &cobra.Command{
	Use:   "unregister <endpoint-url>",
	Short: "Remove a webhook registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac, err := loadAgent()
		if err != nil {
			return err
		}
		defer ac.Close()

		removed, err := ac.UnregisterWebhook(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("unregister webhook: %w", err)
		}
		if !removed {
			fmt.Println("No matching registration found.")
			return nil
		}
		fmt.Println("✓ Webhook removed")
		return nil
	},
}

func init() {
	webhooksRegisterCmd.Flags().StringSliceVar(&webhookEvents, "event", nil, "Event type to subscribe (repeatable)")
	_ = webhooksRegisterCmd.MarkFlagRequired("event")

	webhooksCmd.AddCommand(webhooksRegisterCmd)
	webhooksCmd.AddCommand(webhooksListCmd)
	webhooksCmd.AddCommand(webhooksUnregisterCmd)
}

// ── health / pricing ─────────────────────────────────────────────────────────

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(clientConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		health, err := c.Health(context.Background())
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		return printJSON(health)
	},
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show current operation pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(clientConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		pricing, err := c.Pricing(context.Background())
		if err != nil {
			return fmt.Errorf("pricing: %w", err)
		}
		return printJSON(pricing)
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the moltbridge CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("moltbridge %s\n", version)
	},
}
