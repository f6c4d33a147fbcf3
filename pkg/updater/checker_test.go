package updater_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/updater"
	"github.com/JosephMelesse/anki-vert/pkg/version"
)

func testLogger() *logger.Logger {
	log := logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[updater-test] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(true)
	return log
}

var _ = Describe("Checker", func() {
	var (
		server      *httptest.Server
		release     updater.GitHubRelease
		origVersion string
	)

	BeforeEach(func() {
		origVersion = version.Version
		version.Version = "1.0.0"

		release = updater.GitHubRelease{
			TagName: "v1.2.0",
			Name:    "v1.2.0",
			Body:    "bug fixes",
			HTMLURL: "https://example.com/releases/v1.2.0",
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("User-Agent")).To(Equal("ankivert-updater"))
			w.Header().Set("Content-Type", "application/json")
			Expect(json.NewEncoder(w).Encode(release)).To(Succeed())
		}))
	})

	AfterEach(func() {
		version.Version = origVersion
		server.Close()
	})

	It("should report an available update for a newer release", func() {
		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(server.URL))

		info, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(info).NotTo(BeNil())
		Expect(info.IsAvailable).To(BeTrue())
		Expect(info.CurrentVersion).To(Equal("1.0.0"))
		Expect(info.LatestVersion).To(Equal("1.2.0"))
		Expect(info.ReleaseURL).To(Equal("https://example.com/releases/v1.2.0"))
	})

	It("should not offer the same version as an update", func() {
		release.TagName = "v1.0.0"
		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(server.URL))

		info, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeFalse())
	})

	It("should compare version segments numerically", func() {
		version.Version = "1.9.0"
		release.TagName = "v1.10.0"
		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(server.URL))

		info, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeTrue())
	})

	It("should never offer prereleases", func() {
		release.TagName = "v2.0.0"
		release.Prerelease = true
		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(server.URL))

		info, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeFalse())
	})

	It("should rate limit repeated checks", func() {
		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(server.URL))

		first, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(first).NotTo(BeNil())

		second, err := checker.CheckForUpdates()
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeNil())
	})

	It("should surface non-200 responses as errors", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer failing.Close()

		checker := updater.NewChecker(testLogger(), updater.WithEndpoint(failing.URL))

		_, err := checker.CheckForUpdates()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 403"))
	})
})
